package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/megasio/payadmin/internal/clock"
	"github.com/megasio/payadmin/internal/gateway"
	"github.com/megasio/payadmin/internal/observability/metrics"
	"github.com/megasio/payadmin/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Gateway domain.Gateway
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	gw      domain.Gateway
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("settlement.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		gw:      p.Gateway,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.SettlementRequest, int64, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.SettlementRequest, error) {
	req, err := s.repo.FindWithRelations(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	return req, nil
}

// Approve runs the local flip and the gateway submission in one transaction.
// The row lock closes the race between two operators approving at once: the
// second locker sees PROCESSING and fails the PENDING precondition.
func (s *Service) Approve(ctx context.Context, id snowflake.ID, note string) (*domain.SettlementRequest, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		req, err := s.repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if req.Status != domain.StatusPending {
			return domain.ErrNotPending
		}
		if req.PaymentMethod == nil {
			return domain.ErrMissingPaymentMethod
		}

		now := s.clock.Now()
		req.Approved = true
		req.Status = domain.StatusProcessing
		if trimmed := strings.TrimSpace(note); trimmed != "" {
			req.Note = trimmed
		}
		req.GatewayToken = uuid.NewString()
		req.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, req); err != nil {
			return err
		}

		wr, err := s.withdrawRequest(req)
		if err != nil {
			return err
		}
		accepted, err := s.gw.Withdraw(ctx, wr)
		if err != nil {
			return err
		}
		if accepted.OutTradeNo != "" && accepted.OutTradeNo != req.OutTradeNo {
			req.OutTradeNo = accepted.OutTradeNo
			if err := s.repo.Update(ctx, tx, req); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.recordApprove(ctx, err)
		s.log.Warn("approve failed",
			zap.Int64("id", int64(id)),
			zap.Error(err))
		return nil, err
	}
	s.recordApprove(ctx, nil)
	s.log.Info("settlement approved", zap.Int64("id", int64(id)))
	return s.Get(ctx, id)
}

func (s *Service) Reject(ctx context.Context, id snowflake.ID, note string) (*domain.SettlementRequest, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		req, err := s.repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if req.Status != domain.StatusPending {
			return domain.ErrNotPending
		}

		now := s.clock.Now()
		req.Approved = false
		req.Status = domain.StatusRejected
		req.PayStatus = domain.PayStatusCancelled
		if trimmed := strings.TrimSpace(note); trimmed != "" {
			req.Note = trimmed
		}
		req.CompletedAt = &now
		req.UpdatedAt = now
		return s.repo.Update(ctx, tx, req)
	})
	if err != nil {
		s.metrics.RecordSettlementAction(ctx, "reject", "error")
		return nil, err
	}
	s.metrics.RecordSettlementAction(ctx, "reject", "ok")
	s.log.Info("settlement rejected", zap.Int64("id", int64(id)))
	return s.Get(ctx, id)
}

// withdrawRequest builds the gateway payload. Routing goes by the provider
// key of the settlement's payment method; an extra_info channel_id, when
// present and numeric, pins the upstream channel.
func (s *Service) withdrawRequest(req *domain.SettlementRequest) (gateway.WithdrawRequest, error) {
	extra, err := req.ExtraInfoMap()
	if err != nil {
		return gateway.WithdrawRequest{}, err
	}

	var channelID int64
	if raw, ok := extra["channel_id"]; ok {
		if id, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			channelID = id
		}
		delete(extra, "channel_id")
	}

	return gateway.WithdrawRequest{
		OutTradeNo:  req.OrderNo,
		Amount:      req.Amount,
		Symbol:      req.Currency,
		CoinType:    req.CurrencyType,
		UserIP:      req.UserIP,
		ChannelType: gateway.ChannelTypeRouted,
		PaymentID:   req.PaymentMethod.Key,
		ChannelID:   channelID,
		ExtraInfo:   extra,
	}, nil
}

func (s *Service) recordApprove(ctx context.Context, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case gateway.AsRemoteError(err) != nil:
		outcome = "remote_rejected"
	case gateway.AsTransportError(err) != nil:
		outcome = "transport_error"
	default:
		outcome = "error"
	}
	s.metrics.RecordSettlementAction(ctx, "approve", outcome)
}
