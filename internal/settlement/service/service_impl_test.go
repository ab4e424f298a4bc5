package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	sqlite "github.com/glebarez/sqlite"
	"github.com/megasio/payadmin/internal/clock"
	"github.com/megasio/payadmin/internal/gateway"
	methoddomain "github.com/megasio/payadmin/internal/paymentmethod/domain"
	"github.com/megasio/payadmin/internal/settlement/domain"
	"github.com/megasio/payadmin/internal/settlement/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type gatewayFake struct {
	calls    int
	lastReq  gateway.WithdrawRequest
	err      error
	accepted *gateway.WithdrawAccepted
}

func (g *gatewayFake) Withdraw(ctx context.Context, req gateway.WithdrawRequest) (*gateway.WithdrawAccepted, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	if g.accepted != nil {
		return g.accepted, nil
	}
	return &gateway.WithdrawAccepted{OrderID: "GW-1", OutTradeNo: req.OutTradeNo}, nil
}

type settlementFixture struct {
	svc    domain.Service
	db     *gorm.DB
	gw     *gatewayFake
	node   *snowflake.Node
	method *methoddomain.PaymentMethod
	user   *domain.User
}

func setupSettlementService(t *testing.T) *settlementFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	models := []any{&methoddomain.PaymentMethod{}, &domain.User{}, &domain.SettlementRequest{}}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	method := &methoddomain.PaymentMethod{
		ID:       node.Generate(),
		Key:      77,
		Type:     methoddomain.TypeWithdraw,
		IsFiat:   true,
		Name:     "pix",
		Currency: "BRL",
		Enabled:  true,
	}
	if err := db.Create(method).Error; err != nil {
		t.Fatalf("create method: %v", err)
	}

	user := &domain.User{ID: node.Generate(), Email: "ana@example.com", Phone: "+5511999990000"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	gw := &gatewayFake{}
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Unix(1700000000, 0)),
		Repo:    repository.Provide(),
		Gateway: gw,
	})

	return &settlementFixture{svc: svc, db: db, gw: gw, node: node, method: method, user: user}
}

func (f *settlementFixture) newRequest(t *testing.T, mutate func(*domain.SettlementRequest)) *domain.SettlementRequest {
	t.Helper()
	req := &domain.SettlementRequest{
		ID:              f.node.Generate(),
		Kind:            domain.KindWithdraw,
		UserID:          f.user.ID,
		OrderNo:         "W" + f.node.Generate().String(),
		Amount:          decimal.RequireFromString("25.4"),
		Currency:        "BRL",
		CurrencyType:    "fiat",
		PaymentMethodID: f.method.ID,
		Status:          domain.StatusPending,
		PayStatus:       domain.PayStatusPending,
		UserIP:          "10.0.0.1",
	}
	if mutate != nil {
		mutate(req)
	}
	if err := f.db.Create(req).Error; err != nil {
		t.Fatalf("create settlement: %v", err)
	}
	return req
}

func (f *settlementFixture) reload(t *testing.T, id snowflake.ID) *domain.SettlementRequest {
	t.Helper()
	var item domain.SettlementRequest
	if err := f.db.First(&item, "id = ?", id).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	return &item
}

func TestApproveHappyPath(t *testing.T) {
	f := setupSettlementService(t)
	req := f.newRequest(t, nil)

	resp, err := f.svc.Approve(context.Background(), req.ID, "looks good")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if f.gw.calls != 1 {
		t.Fatalf("gateway calls = %d", f.gw.calls)
	}
	if f.gw.lastReq.PaymentID != 77 {
		t.Fatalf("payment_id = %d", f.gw.lastReq.PaymentID)
	}
	if f.gw.lastReq.ChannelType != gateway.ChannelTypeRouted {
		t.Fatalf("channel type = %d", f.gw.lastReq.ChannelType)
	}
	if f.gw.lastReq.OutTradeNo != req.OrderNo {
		t.Fatalf("out_trade_no = %q, want %q", f.gw.lastReq.OutTradeNo, req.OrderNo)
	}
	if !f.gw.lastReq.Amount.Equal(req.Amount) {
		t.Fatalf("amount = %s", f.gw.lastReq.Amount)
	}

	stored := f.reload(t, req.ID)
	if stored.Status != domain.StatusProcessing || !stored.Approved {
		t.Fatalf("unexpected state: status=%s approved=%v", stored.Status, stored.Approved)
	}
	if stored.Note != "looks good" {
		t.Fatalf("note = %q", stored.Note)
	}
	if stored.GatewayToken == "" {
		t.Fatal("missing gateway token")
	}

	if resp.User == nil || resp.User.Email != "ana@example.com" {
		t.Fatalf("user not loaded: %+v", resp.User)
	}
	if resp.PaymentMethod == nil || resp.PaymentMethod.Key != 77 {
		t.Fatalf("payment method not loaded: %+v", resp.PaymentMethod)
	}
}

func TestApproveRemoteRejectionRollsBack(t *testing.T) {
	f := setupSettlementService(t)
	f.gw.err = &gateway.RemoteError{Method: "withdraw", Code: 2001, Message: "insufficient balance"}
	req := f.newRequest(t, nil)

	_, err := f.svc.Approve(context.Background(), req.ID, "")
	if gateway.AsRemoteError(err) == nil {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if f.gw.calls != 1 {
		t.Fatalf("gateway calls = %d", f.gw.calls)
	}

	stored := f.reload(t, req.ID)
	if stored.Status != domain.StatusPending || stored.Approved {
		t.Fatalf("flip not rolled back: status=%s approved=%v", stored.Status, stored.Approved)
	}
	if stored.GatewayToken != "" {
		t.Fatalf("token not rolled back: %q", stored.GatewayToken)
	}

	// The request is still approvable once the upstream issue clears.
	f.gw.err = nil
	if _, err := f.svc.Approve(context.Background(), req.ID, ""); err != nil {
		t.Fatalf("retry approve: %v", err)
	}
	if got := f.reload(t, req.ID).Status; got != domain.StatusProcessing {
		t.Fatalf("status = %s", got)
	}
}

func TestApproveTransportErrorRollsBack(t *testing.T) {
	f := setupSettlementService(t)
	f.gw.err = &gateway.TransportError{Method: "withdraw", Err: errors.New("timeout")}
	req := f.newRequest(t, nil)

	_, err := f.svc.Approve(context.Background(), req.ID, "")
	if gateway.AsTransportError(err) == nil {
		t.Fatalf("expected TransportError, got %v", err)
	}

	stored := f.reload(t, req.ID)
	if stored.Status != domain.StatusPending || stored.Approved {
		t.Fatalf("flip not rolled back: status=%s approved=%v", stored.Status, stored.Approved)
	}
}

func TestApproveNotPending(t *testing.T) {
	f := setupSettlementService(t)
	req := f.newRequest(t, func(r *domain.SettlementRequest) {
		r.Status = domain.StatusProcessing
		r.Approved = true
	})

	_, err := f.svc.Approve(context.Background(), req.ID, "")
	if !errors.Is(err, domain.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if f.gw.calls != 0 {
		t.Fatalf("gateway calls = %d", f.gw.calls)
	}
}

func TestApproveNotFound(t *testing.T) {
	f := setupSettlementService(t)

	_, err := f.svc.Approve(context.Background(), f.node.Generate(), "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApproveKeepsPriorNoteWhenEmpty(t *testing.T) {
	f := setupSettlementService(t)
	req := f.newRequest(t, func(r *domain.SettlementRequest) {
		r.Note = "verified by support"
	})

	if _, err := f.svc.Approve(context.Background(), req.ID, "   "); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := f.reload(t, req.ID).Note; got != "verified by support" {
		t.Fatalf("note = %q", got)
	}
}

func TestApproveForwardsExtraInfoChannelID(t *testing.T) {
	f := setupSettlementService(t)
	req := f.newRequest(t, func(r *domain.SettlementRequest) {
		r.ExtraInfo = datatypes.JSON(`{"channel_id":"9","account":"123"}`)
	})

	if _, err := f.svc.Approve(context.Background(), req.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if f.gw.lastReq.ChannelID != 9 {
		t.Fatalf("channel_id = %d", f.gw.lastReq.ChannelID)
	}
	if _, ok := f.gw.lastReq.ExtraInfo["channel_id"]; ok {
		t.Fatal("channel_id leaked into extra info")
	}
	if f.gw.lastReq.ExtraInfo["account"] != "123" {
		t.Fatalf("extra info = %+v", f.gw.lastReq.ExtraInfo)
	}
}

func TestApproveStoresGatewayOutTradeNo(t *testing.T) {
	f := setupSettlementService(t)
	f.gw.accepted = &gateway.WithdrawAccepted{OrderID: "GW-9", OutTradeNo: "UPSTREAM-1"}
	req := f.newRequest(t, nil)

	if _, err := f.svc.Approve(context.Background(), req.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := f.reload(t, req.ID).OutTradeNo; got != "UPSTREAM-1" {
		t.Fatalf("out_trade_no = %q", got)
	}
}

func TestRejectNeverCallsGateway(t *testing.T) {
	f := setupSettlementService(t)
	req := f.newRequest(t, nil)

	resp, err := f.svc.Reject(context.Background(), req.ID, "document mismatch")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if f.gw.calls != 0 {
		t.Fatalf("gateway calls = %d", f.gw.calls)
	}

	stored := f.reload(t, req.ID)
	if stored.Status != domain.StatusRejected || stored.Approved {
		t.Fatalf("unexpected state: status=%s approved=%v", stored.Status, stored.Approved)
	}
	if stored.PayStatus != domain.PayStatusCancelled {
		t.Fatalf("pay status = %s", stored.PayStatus)
	}
	if stored.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
	if resp.Note != "document mismatch" {
		t.Fatalf("note = %q", resp.Note)
	}
}

func TestRejectAfterApproveFails(t *testing.T) {
	f := setupSettlementService(t)
	req := f.newRequest(t, nil)

	if _, err := f.svc.Approve(context.Background(), req.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err := f.svc.Reject(context.Background(), req.ID, "")
	if !errors.Is(err, domain.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	f := setupSettlementService(t)
	pending := f.newRequest(t, nil)
	f.newRequest(t, func(r *domain.SettlementRequest) {
		r.Status = domain.StatusRejected
	})

	items, total, err := f.svc.List(context.Background(), domain.ListFilter{Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != pending.ID {
		t.Fatalf("unexpected listing: total=%d items=%d", total, len(items))
	}

	items, total, err = f.svc.List(context.Background(), domain.ListFilter{Account: "ana@"})
	if err != nil {
		t.Fatalf("list by account: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("unexpected account listing: total=%d items=%d", total, len(items))
	}
}
