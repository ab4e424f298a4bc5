package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	methoddomain "github.com/megasio/payadmin/internal/paymentmethod/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Kind of settlement request. Withdraws and redemptions share the approval
// state machine and the gateway path; the kind only tags origin.
const (
	KindWithdraw = "withdraw"
	KindRedeem   = "redeem"
)

// Approval statuses.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusCancelled  = "CANCELLED"
	StatusRejected   = "REJECTED"
)

// Gateway payout statuses, settled by callback after approval.
const (
	PayStatusPending   = "PENDING"
	PayStatusPaid      = "PAID"
	PayStatusFailed    = "FAILED"
	PayStatusCancelled = "CANCELLED"
)

// SettlementRequest is a user-initiated outbound payment driven through
// operator approval. Invariant: the row is PROCESSING if and only if the
// gateway accepted the withdraw call for it.
type SettlementRequest struct {
	ID   snowflake.ID `json:"id" gorm:"primaryKey"`
	Kind string       `json:"kind" gorm:"type:text;not null;default:withdraw"`

	UserID snowflake.ID `json:"user_id" gorm:"not null;index"`
	User   *User        `json:"user,omitempty" gorm:"foreignKey:UserID"`

	OrderNo    string `json:"order_no" gorm:"type:text;not null;uniqueIndex"`
	OutTradeNo string `json:"out_trade_no" gorm:"type:text;index"`

	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(24,8);not null"`
	Fee          decimal.Decimal `json:"fee" gorm:"type:decimal(24,8);not null;default:0"`
	Currency     string          `json:"currency" gorm:"type:text;not null"`
	CurrencyType string          `json:"currency_type" gorm:"type:text"`

	PaymentMethodID snowflake.ID                `json:"payment_method_id" gorm:"not null;index"`
	PaymentMethod   *methoddomain.PaymentMethod `json:"payment_method,omitempty" gorm:"foreignKey:PaymentMethodID"`

	// WithdrawInfo is the user-entered form payload (account numbers etc).
	WithdrawInfo datatypes.JSON `json:"withdraw_info,omitempty"`
	// ExtraInfo key/values are forwarded to the gateway on approval.
	ExtraInfo datatypes.JSON `json:"extra_info,omitempty"`

	Approved  bool   `json:"approved" gorm:"not null;default:false"`
	Status    string `json:"status" gorm:"type:text;not null;default:PENDING;index"`
	PayStatus string `json:"pay_status" gorm:"type:text;not null;default:PENDING"`

	// GatewayToken is written before the outbound call so a retry can detect
	// a prior submission attempt.
	GatewayToken string `json:"-" gorm:"type:text"`

	Note   string `json:"note" gorm:"type:text"`
	UserIP string `json:"user_ip" gorm:"type:text"`

	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (SettlementRequest) TableName() string { return "settlements" }

// ExtraInfoMap decodes the stored extra info; a missing payload is an empty map.
func (r *SettlementRequest) ExtraInfoMap() (map[string]string, error) {
	if len(r.ExtraInfo) == 0 {
		return map[string]string{}, nil
	}
	var extra map[string]string
	if err := json.Unmarshal(r.ExtraInfo, &extra); err != nil {
		return nil, err
	}
	return extra, nil
}

// User is the settlement owner, loaded for operator display and account search.
type User struct {
	ID    snowflake.ID `json:"id" gorm:"primaryKey"`
	Email string       `json:"email" gorm:"type:text"`
	Phone string       `json:"phone" gorm:"type:text"`
}

func (User) TableName() string { return "users" }
