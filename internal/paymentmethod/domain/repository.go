package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("payment_method_not_found")

type Repository interface {
	FindByProviderKey(ctx context.Context, db *gorm.DB, key int64, methodType string, isFiat bool) (*PaymentMethod, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentMethod, error)
	List(ctx context.Context, db *gorm.DB) ([]PaymentMethod, error)
	Create(ctx context.Context, db *gorm.DB, method *PaymentMethod) error
	Update(ctx context.Context, db *gorm.DB, method *PaymentMethod) error
}
