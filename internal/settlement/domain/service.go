package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/megasio/payadmin/internal/gateway"
)

// Gateway is the slice of the signed client the approval path consumes.
type Gateway interface {
	Withdraw(ctx context.Context, req gateway.WithdrawRequest) (*gateway.WithdrawAccepted, error)
}

type Service interface {
	List(ctx context.Context, filter ListFilter) ([]SettlementRequest, int64, error)
	Get(ctx context.Context, id snowflake.ID) (*SettlementRequest, error)
	// Approve flips a PENDING request to approved/PROCESSING and submits the
	// payout to the gateway inside the same transaction. Any gateway failure
	// rolls the local flip back and the request stays PENDING.
	Approve(ctx context.Context, id snowflake.ID, note string) (*SettlementRequest, error)
	// Reject flips a PENDING request to REJECTED. No gateway call is made.
	Reject(ctx context.Context, id snowflake.ID, note string) (*SettlementRequest, error)
}
