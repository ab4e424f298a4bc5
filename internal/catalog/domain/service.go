package domain

import (
	"context"
	"errors"

	"github.com/megasio/payadmin/internal/gateway"
)

// Report tallies one reconciliation branch. Per-record failures are isolated
// and counted; they never abort the batch.
type Report struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// SyncResult carries both branch reports of one full sync run.
type SyncResult struct {
	Fiat   Report `json:"fiat"`
	Crypto Report `json:"crypto"`
}

// ErrSyncInProgress means another instance holds the sync lock.
var ErrSyncInProgress = errors.New("sync_in_progress")

// Gateway is the slice of the signed client the reconciler consumes.
type Gateway interface {
	FetchPayments(ctx context.Context) (*gateway.PaymentsCatalog, error)
	FetchCoins(ctx context.Context) (*gateway.CoinsCatalog, error)
}

type Service interface {
	// ReconcileFiat upserts fiat rails from the payments catalog. A fetch
	// failure returns a zero report plus the gateway error.
	ReconcileFiat(ctx context.Context) (Report, error)
	// ReconcileCrypto upserts crypto rails from the coins catalog.
	ReconcileCrypto(ctx context.Context) (Report, error)
	// ReconcileAll runs both branches under the sync lock when one is
	// configured. A fetch failure in one branch does not skip the other.
	ReconcileAll(ctx context.Context) (SyncResult, error)
}
