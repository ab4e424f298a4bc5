package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Direction of a payment rail. A provider id can exist once per direction and
// per fiat/crypto family; the triple (key, type, is_fiat) is the dedup key.
const (
	TypeDeposit  = "deposit"
	TypeWithdraw = "withdraw"
)

// PaymentMethod is one tradable rail: a fiat channel or crypto asset for a
// single direction. Rows are created by catalog sync and never auto-deleted;
// absence from a later provider payload is not removal.
type PaymentMethod struct {
	ID     snowflake.ID `json:"id" gorm:"primaryKey"`
	Key    int64        `json:"key" gorm:"not null;uniqueIndex:ux_payment_methods_key_type_fiat,priority:1"`
	Type   string       `json:"type" gorm:"type:text;not null;uniqueIndex:ux_payment_methods_key_type_fiat,priority:2"`
	IsFiat bool         `json:"is_fiat" gorm:"not null;uniqueIndex:ux_payment_methods_key_type_fiat,priority:3"`

	Name        string `json:"name" gorm:"type:text;not null"`
	DisplayName string `json:"display_name" gorm:"type:text"`
	Icon        string `json:"icon" gorm:"type:text"`

	Currency     string `json:"currency" gorm:"type:text;not null"`
	CurrencyType string `json:"currency_type" gorm:"type:text"`

	Enabled bool `json:"enabled" gorm:"not null;default:true"`

	MinAmount     *decimal.Decimal `json:"min_amount" gorm:"type:decimal(24,8)"`
	MaxAmount     *decimal.Decimal `json:"max_amount" gorm:"type:decimal(24,8)"`
	DefaultAmount *decimal.Decimal `json:"default_amount" gorm:"type:decimal(24,8)"`
	Amounts       datatypes.JSON   `json:"amounts,omitempty"`

	// Fields is the ordered form-field list ([]Field).
	Fields datatypes.JSON `json:"fields,omitempty"`
	// Notes holds the provider's raw payment_info for fiat rails.
	Notes datatypes.JSON `json:"notes,omitempty"`
	// CryptoInfo holds the provider metadata bag for crypto rails.
	CryptoInfo datatypes.JSON `json:"crypto_info,omitempty"`

	SortID   int        `json:"sort_id" gorm:"not null;default:0"`
	SyncedAt *time.Time `json:"synced_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }

// FieldList decodes the stored field definitions, preserving order.
func (m *PaymentMethod) FieldList() ([]Field, error) {
	if len(m.Fields) == 0 {
		return nil, nil
	}
	var fields []Field
	if err := json.Unmarshal(m.Fields, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// SetFieldList stores the field definitions.
func (m *PaymentMethod) SetFieldList(fields []Field) error {
	if fields == nil {
		m.Fields = nil
		return nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	m.Fields = datatypes.JSON(raw)
	return nil
}
