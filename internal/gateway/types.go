package gateway

import "github.com/shopspring/decimal"

// CodeOK is the gateway's success code.
const CodeOK = 0

// Gateway-side order statuses, reported on withdraw callbacks.
const (
	StatusPreparing    = 0
	StatusPaying       = 1
	StatusConfirming   = 2
	StatusSucceeded    = 3
	StatusFailed       = 4
	StatusExpired      = 5
	StatusDelayed      = 6
	StatusInsufficient = 7 // paid, but below the order amount
	StatusRejected     = 8
)

// ChannelTypeRouted routes a withdraw through a specific payment rail; the
// request must carry payment_id and may carry channel_id.
const ChannelTypeRouted = 2

// PaymentRecord is one fiat rail as reported by the payments catalog.
// PaymentInfo is free-form provider metadata (field lists, bank tables,
// limits) and is persisted verbatim.
type PaymentRecord struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	EnableDeposit  int            `json:"enable_deposit"`
	EnableWithdraw int            `json:"enable_withdraw"`
	PaymentInfo    map[string]any `json:"payment_info"`
}

// PaymentsCatalog buckets payment records by currency code.
type PaymentsCatalog struct {
	Items map[string][]PaymentRecord `json:"items"`
}

// CoinRecord is one crypto asset as reported by the coins catalog.
type CoinRecord struct {
	ID               int64           `json:"id"`
	Symbol           string          `json:"symbol"`
	TokenName        string          `json:"token_name"`
	CoinType         string          `json:"coin_type"`
	ContractAddress  string          `json:"contract_address"`
	TokenDecimal     int             `json:"token_decimal"`
	MinWithdraw      decimal.Decimal `json:"min_withdraw"`
	WithdrawFee      decimal.Decimal `json:"withdraw_fee"`
	ArriveTime       string          `json:"arrive_time"`
	DisplayPrecision int             `json:"display_precision"`
	TypeAlias        string          `json:"type_alias"`
	MultiChain       bool            `json:"multi_chain"`
	Memoable         bool            `json:"memoable"`
	EnableDeposit    int             `json:"enable_deposit"`
	EnableWithdraw   int             `json:"enable_withdraw"`
	Icon             string          `json:"icon"`
	SortID           int             `json:"sort_id"`
}

type CoinsCatalog struct {
	Items []CoinRecord `json:"items"`
}

// WithdrawRequest describes one outbound payment order.
type WithdrawRequest struct {
	OutTradeNo  string
	Amount      decimal.Decimal
	Symbol      string
	CoinType    string
	UserIP      string
	ChannelType int
	PaymentID   int64
	// ChannelID narrows routing inside the selected rail; zero means unset.
	ChannelID int64
	// ExtraInfo key/values are trimmed and merged into the request body
	// before signing.
	ExtraInfo map[string]string
}

// WithdrawAccepted is the gateway's acknowledgement of a withdraw order.
type WithdrawAccepted struct {
	OrderID    string `json:"order_id"`
	OutTradeNo string `json:"out_trade_no"`
	Status     int    `json:"status"`
}
