package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("not_found")
	// ErrNotPending means the request already left PENDING, usually because
	// another operator decided it first.
	ErrNotPending = errors.New("not_pending")
	// ErrMissingPaymentMethod means the request references a payment method
	// row that no longer exists.
	ErrMissingPaymentMethod = errors.New("missing_payment_method")
)

// ListFilter narrows settlement listings. Zero values mean no constraint.
type ListFilter struct {
	// Account matches the owner's email or phone, substring style.
	Account         string
	OrderNo         string
	OutTradeNo      string
	PaymentMethodID snowflake.ID
	Kind            string
	Status          string
	PayStatus       string
	Approved        *bool

	Page    int
	PerPage int
}

type Repository interface {
	// FindForUpdate loads one request under a row lock. Must run inside a
	// transaction. Returns (nil, nil) when absent.
	FindForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*SettlementRequest, error)
	// FindWithRelations loads one request with its user and payment method.
	FindWithRelations(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SettlementRequest, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]SettlementRequest, int64, error)
	Create(ctx context.Context, db *gorm.DB, req *SettlementRequest) error
	Update(ctx context.Context, db *gorm.DB, req *SettlementRequest) error
}
