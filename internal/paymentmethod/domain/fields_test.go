package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeFieldsUpdatesIntersection(t *testing.T) {
	existing := []Field{
		{"field": "account", "require": false, "type": "text", "label": "Conta"},
		{"field": "bank_code", "require": true, "type": "select"},
	}
	incoming := []Field{
		{"field": "account", "require": true, "type": "number", "list": []any{"a", "b"}},
	}

	merged := MergeFields(existing, incoming)
	require.Len(t, merged, 2)

	assert.Equal(t, "account", merged[0].Name())
	assert.Equal(t, true, merged[0]["require"])
	assert.Equal(t, "number", merged[0]["type"])
	assert.Equal(t, []any{"a", "b"}, merged[0]["list"])
	// Custom keys survive the refresh untouched.
	assert.Equal(t, "Conta", merged[0]["label"])

	// Fields the provider no longer reports are kept as-is.
	assert.Equal(t, "bank_code", merged[1].Name())
	assert.Equal(t, true, merged[1]["require"])
}

func TestMergeFieldsDropsIncomingOnlyNames(t *testing.T) {
	existing := []Field{{"field": "account"}}
	incoming := []Field{
		{"field": "account", "require": true},
		{"field": "pix_type", "require": true},
	}

	merged := MergeFields(existing, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, "account", merged[0].Name())
}

func TestMergeFieldsPreservesOrder(t *testing.T) {
	existing := []Field{
		{"field": "c"},
		{"field": "a"},
		{"field": "b"},
	}
	incoming := []Field{
		{"field": "a", "type": "text"},
		{"field": "b", "type": "text"},
		{"field": "c", "type": "text"},
	}

	merged := MergeFields(existing, incoming)
	require.Len(t, merged, 3)
	assert.Equal(t, "c", merged[0].Name())
	assert.Equal(t, "a", merged[1].Name())
	assert.Equal(t, "b", merged[2].Name())
}

func TestMergeFieldsEmptyExisting(t *testing.T) {
	merged := MergeFields(nil, []Field{{"field": "account"}})
	assert.Empty(t, merged)
}

func TestMergeFieldsSkipsUndefinedControlledKeys(t *testing.T) {
	existing := []Field{{"field": "account", "require": true, "list": []any{"x"}}}
	incoming := []Field{{"field": "account", "type": "text"}}

	merged := MergeFields(existing, incoming)
	require.Len(t, merged, 1)
	// Keys the incoming field does not define are left alone.
	assert.Equal(t, true, merged[0]["require"])
	assert.Equal(t, []any{"x"}, merged[0]["list"])
	assert.Equal(t, "text", merged[0]["type"])
}

func TestMergeFieldsDoesNotMutateInputs(t *testing.T) {
	existing := []Field{{"field": "account", "require": false}}
	incoming := []Field{{"field": "account", "require": true}}

	_ = MergeFields(existing, incoming)
	assert.Equal(t, false, existing[0]["require"])
}

func TestMergeFieldsIdempotent(t *testing.T) {
	existing := []Field{
		{"field": "account", "require": false, "label": "Conta"},
		{"field": "bank_code"},
	}
	incoming := []Field{
		{"field": "account", "require": true, "type": "text"},
	}

	once := MergeFields(existing, incoming)
	twice := MergeFields(once, incoming)
	assert.Equal(t, once, twice)
}
