package domain

// Field is one form field of a payment method's deposit/withdraw form. It is
// deliberately an open map: admins attach custom properties the sync does not
// know about, and those must survive every merge verbatim. The field name
// under key "field" is the identity; the sync owns only "require", "type"
// and "list".
type Field map[string]any

// Keys the catalog sync is allowed to refresh on an existing field.
var syncControlledKeys = []string{"require", "type", "list"}

// FieldKeyName is the map key holding a field's stable identifier.
const FieldKeyName = "field"

func (f Field) Name() string {
	name, _ := f[FieldKeyName].(string)
	return name
}

func (f Field) Clone() Field {
	clone := make(Field, len(f))
	for key, value := range f {
		clone[key] = value
	}
	return clone
}

// MergeFields merges a provider-supplied field list into an existing local
// one, updating only the intersection by field name.
//
// For a name present on both sides the existing field is kept as the base so
// custom keys survive, and the sync-controlled keys are overwritten when the
// incoming field defines them. Names only the local side knows are kept
// unchanged: a provider catalog gap is not deletion. Names only the provider
// knows are dropped here — they are injected on row creation only, matching
// the observed sync behavior.
//
// The result preserves the existing iteration order and its length never
// exceeds len(existing).
func MergeFields(existing, incoming []Field) []Field {
	if len(existing) == 0 {
		return nil
	}

	incomingByName := make(map[string]Field, len(incoming))
	for _, field := range incoming {
		if name := field.Name(); name != "" {
			incomingByName[name] = field
		}
	}

	merged := make([]Field, 0, len(existing))
	for _, field := range existing {
		name := field.Name()
		update, ok := incomingByName[name]
		if name == "" || !ok {
			merged = append(merged, field)
			continue
		}

		next := field.Clone()
		for _, key := range syncControlledKeys {
			if value, defined := update[key]; defined {
				next[key] = value
			}
		}
		merged = append(merged, next)
	}
	return merged
}
