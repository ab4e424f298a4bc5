package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/megasio/payadmin/internal/clock"
	"github.com/megasio/payadmin/internal/paymentmethod/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("paymentmethod.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.PaymentMethod, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) UpdateAdmin(ctx context.Context, id snowflake.ID, req domain.AdminUpdateRequest) (*domain.PaymentMethod, error) {
	if req.MinAmount != nil && req.MinAmount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if req.MaxAmount != nil && req.MaxAmount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	method, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, domain.ErrNotFound
	}

	if req.DisplayName != nil {
		method.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Icon != nil {
		method.Icon = strings.TrimSpace(*req.Icon)
	}
	if req.MinAmount != nil {
		method.MinAmount = req.MinAmount
	}
	if req.MaxAmount != nil {
		method.MaxAmount = req.MaxAmount
	}
	method.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, method); err != nil {
		return nil, err
	}
	return method, nil
}
