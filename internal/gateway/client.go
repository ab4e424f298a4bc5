package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/megasio/payadmin/internal/clock"
	"github.com/megasio/payadmin/internal/config"
	obsmetrics "github.com/megasio/payadmin/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	pathPayments = "/api/payments/list"
	pathCoins    = "/api/coins"
	pathWithdraw = "/api/orders/withdraw"
)

// Client issues signed requests to the payment gateway and decodes the
// {code, data, errmsg} envelope into per-operation results.
type Client struct {
	cfg     config.SopayConfig
	http    *http.Client
	clock   clock.Clock
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

type Params struct {
	Cfg     config.SopayConfig
	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics
}

func NewClient(p Params) *Client {
	timeout := p.Cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := clock.Clock(p.Clock)
	if c == nil {
		c = clock.NewSystemClock()
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:     p.Cfg,
		http:    &http.Client{Timeout: timeout},
		clock:   c,
		log:     log.Named("gateway.client"),
		metrics: p.Metrics,
	}
}

type envelope struct {
	Code   int             `json:"code"`
	Errmsg string          `json:"errmsg"`
	Data   json.RawMessage `json:"data"`
}

// FetchPayments retrieves the fiat payment catalog bucketed by currency.
func (c *Client) FetchPayments(ctx context.Context) (*PaymentsCatalog, error) {
	data, err := c.get(ctx, "payments", pathPayments)
	if err != nil {
		return nil, err
	}

	var catalog PaymentsCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, &TransportError{Method: "payments", Err: err}
	}
	return &catalog, nil
}

// FetchCoins retrieves the crypto coin catalog.
func (c *Client) FetchCoins(ctx context.Context) (*CoinsCatalog, error) {
	data, err := c.get(ctx, "coins", pathCoins)
	if err != nil {
		return nil, err
	}

	var catalog CoinsCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, &TransportError{Method: "coins", Err: err}
	}
	return &catalog, nil
}

// Withdraw submits one outbound payment order. The caller must treat a
// TransportError as unknown outcome, not failure.
func (c *Client) Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawAccepted, error) {
	params := map[string]any{
		"amount":       req.Amount.String(),
		"type":         req.ChannelType,
		"symbol":       req.Symbol,
		"coin_type":    req.CoinType,
		"subject":      "withdraw",
		"out_trade_no": req.OutTradeNo,
		"user_ip":      req.UserIP,
		"callback_url": c.cfg.CallbackURL,
		"return_url":   c.cfg.ReturnURL,
		"method":       "withdraw",
	}
	if req.ChannelType == ChannelTypeRouted {
		params["payment_id"] = req.PaymentID
		if req.ChannelID != 0 {
			params["channel_id"] = req.ChannelID
		}
	}
	for key, value := range req.ExtraInfo {
		params[key] = strings.TrimSpace(value)
	}

	data, err := c.post(ctx, "withdraw", pathWithdraw, params)
	if err != nil {
		return nil, err
	}

	accepted := &WithdrawAccepted{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, accepted); err != nil {
			return nil, &TransportError{Method: "withdraw", Err: err}
		}
	}
	c.log.Info("gateway withdraw accepted",
		zap.String("out_trade_no", req.OutTradeNo),
		zap.String("order_id", accepted.OrderID),
	)
	return accepted, nil
}

func (c *Client) get(ctx context.Context, method, path string) (json.RawMessage, error) {
	signed := SignParams(map[string]any{"method": method}, c.cfg.AppID, c.cfg.AppKey, c.clock.Now())

	query := url.Values{}
	for key, value := range signed {
		query.Set(key, paramString(value))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	return c.do(method, req)
}

func (c *Client) post(ctx context.Context, method, path string, params map[string]any) (json.RawMessage, error) {
	signed := SignParams(params, c.cfg.AppID, c.cfg.AppKey, c.clock.Now())

	body, err := json.Marshal(signed)
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(method, req)
}

func (c *Client) do(method string, req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(req.Context(), method, "transport_error")
		return nil, &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.record(req.Context(), method, "transport_error")
		return nil, &TransportError{Method: method, Err: err}
	}

	if env.Code != CodeOK {
		c.record(req.Context(), method, "remote_rejection")
		c.log.Warn("gateway rejected request",
			zap.String("method", method),
			zap.Int("code", env.Code),
			zap.String("errmsg", env.Errmsg),
		)
		return nil, &RemoteError{Method: method, Code: env.Code, Message: env.Errmsg}
	}

	c.record(req.Context(), method, "ok")
	return env.Data, nil
}

func (c *Client) record(ctx context.Context, method, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordGatewayCall(ctx, method, outcome)
	}
}
