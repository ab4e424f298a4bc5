package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid_amount")

// Service exposes the admin-editable surface of payment methods. Sync-owned
// attributes are not reachable from here.
type Service interface {
	List(ctx context.Context) ([]PaymentMethod, error)
	UpdateAdmin(ctx context.Context, id snowflake.ID, req AdminUpdateRequest) (*PaymentMethod, error)
}

// AdminUpdateRequest carries the locally customizable scalars. Nil means
// leave unchanged.
type AdminUpdateRequest struct {
	DisplayName *string          `json:"display_name"`
	Icon        *string          `json:"icon"`
	MinAmount   *decimal.Decimal `json:"min_amount"`
	MaxAmount   *decimal.Decimal `json:"max_amount"`
}
