package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/megasio/payadmin/internal/settlement/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.SettlementRequest, error) {
	q := tx.WithContext(ctx)
	// sqlite serializes writers on its own and rejects FOR UPDATE.
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var item domain.SettlementRequest
	err := q.
		Preload("PaymentMethod").
		Where("id = ?", id).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindWithRelations(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SettlementRequest, error) {
	var item domain.SettlementRequest
	err := db.WithContext(ctx).
		Preload("User").
		Preload("PaymentMethod").
		Where("id = ?", id).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.SettlementRequest, int64, error) {
	q := db.WithContext(ctx).Model(&domain.SettlementRequest{})

	if filter.Account != "" {
		pattern := "%" + filter.Account + "%"
		q = q.Where("user_id IN (?)",
			db.Model(&domain.User{}).Select("id").
				Where("email LIKE ? OR phone LIKE ?", pattern, pattern))
	}
	if filter.OrderNo != "" {
		q = q.Where("order_no = ?", filter.OrderNo)
	}
	if filter.OutTradeNo != "" {
		q = q.Where("out_trade_no = ?", filter.OutTradeNo)
	}
	if filter.PaymentMethodID != 0 {
		q = q.Where("payment_method_id = ?", filter.PaymentMethodID)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PayStatus != "" {
		q = q.Where("pay_status = ?", filter.PayStatus)
	}
	if filter.Approved != nil {
		q = q.Where("approved = ?", *filter.Approved)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 20
	}

	var items []domain.SettlementRequest
	err := q.
		Preload("User").
		Preload("PaymentMethod").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, req *domain.SettlementRequest) error {
	return db.WithContext(ctx).Create(req).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, req *domain.SettlementRequest) error {
	return db.WithContext(ctx).Omit("User", "PaymentMethod").Save(req).Error
}
