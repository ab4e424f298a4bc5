package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/megasio/payadmin/internal/clock"
	"github.com/megasio/payadmin/internal/config"
	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	return NewClient(Params{
		Cfg: config.SopayConfig{
			Endpoint:    srvURL,
			AppID:       "app123",
			AppKey:      "s3cret",
			CallbackURL: "https://example.com/callback",
			ReturnURL:   "https://example.com/return",
			Timeout:     2 * time.Second,
		},
		Clock: clock.NewFakeClock(time.Unix(1700000000, 0)),
	})
}

func TestFetchPaymentsSignsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("app_id") != "app123" {
			t.Errorf("app_id = %q", q.Get("app_id"))
		}
		if q.Get("timestamp") != "1700000000" {
			t.Errorf("timestamp = %q", q.Get("timestamp"))
		}
		if q.Get("method") != "payments" {
			t.Errorf("method = %q", q.Get("method"))
		}

		params := map[string]any{}
		for key := range q {
			params[key] = q.Get(key)
		}
		if q.Get("sign") != Signature(params, "s3cret") {
			t.Errorf("sign mismatch: %q", q.Get("sign"))
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{
				"items": map[string]any{
					"BRL": []map[string]any{
						{"id": 11, "name": "pix", "enable_deposit": 1, "enable_withdraw": 1},
					},
				},
			},
		})
	}))
	defer srv.Close()

	catalog, err := newTestClient(t, srv.URL).FetchPayments(context.Background())
	if err != nil {
		t.Fatalf("fetch payments: %v", err)
	}
	if len(catalog.Items["BRL"]) != 1 || catalog.Items["BRL"][0].Name != "pix" {
		t.Fatalf("unexpected catalog: %+v", catalog.Items)
	}
}

func TestFetchCoinsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":   1004,
			"errmsg": "invalid sign",
		})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchCoins(context.Background())
	remote := AsRemoteError(err)
	if remote == nil {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Code != 1004 || remote.Message != "invalid sign" {
		t.Fatalf("unexpected remote error: %+v", remote)
	}
	if remote.Method != "coins" {
		t.Fatalf("method = %q", remote.Method)
	}
}

func TestFetchPaymentsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(t, srv.URL).FetchPayments(context.Background())
	if AsTransportError(err) == nil {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestFetchPaymentsMalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchPayments(context.Background())
	if AsTransportError(err) == nil {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestWithdrawRoutedBody(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"order_id": "GW-1", "out_trade_no": "R100", "status": 0},
		})
	}))
	defer srv.Close()

	accepted, err := newTestClient(t, srv.URL).Withdraw(context.Background(), WithdrawRequest{
		OutTradeNo:  "R100",
		Amount:      decimal.RequireFromString("25.4"),
		Symbol:      "BRL",
		CoinType:    "fiat",
		UserIP:      "10.0.0.1",
		ChannelType: ChannelTypeRouted,
		PaymentID:   77,
		ExtraInfo:   map[string]string{"account": " 123 "},
	})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if accepted.OrderID != "GW-1" {
		t.Fatalf("order_id = %q", accepted.OrderID)
	}

	if body["amount"] != "25.4" {
		t.Fatalf("amount = %v", body["amount"])
	}
	if body["type"] != float64(ChannelTypeRouted) {
		t.Fatalf("type = %v", body["type"])
	}
	if body["payment_id"] != float64(77) {
		t.Fatalf("payment_id = %v", body["payment_id"])
	}
	if _, ok := body["channel_id"]; ok {
		t.Fatalf("unexpected channel_id: %v", body["channel_id"])
	}
	if body["account"] != "123" {
		t.Fatalf("account = %v", body["account"])
	}
	if body["subject"] != "withdraw" || body["method"] != "withdraw" {
		t.Fatalf("subject/method = %v/%v", body["subject"], body["method"])
	}
	if body["callback_url"] != "https://example.com/callback" {
		t.Fatalf("callback_url = %v", body["callback_url"])
	}
	if body["sign"] == "" || body["sign"] == nil {
		t.Fatal("missing sign")
	}
}

func TestWithdrawRemoteRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 2001, "errmsg": "insufficient balance"})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Withdraw(context.Background(), WithdrawRequest{
		OutTradeNo:  "R101",
		Amount:      decimal.NewFromInt(10),
		Symbol:      "BRL",
		ChannelType: ChannelTypeRouted,
		PaymentID:   77,
	})
	remote := AsRemoteError(err)
	if remote == nil {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Code != 2001 {
		t.Fatalf("code = %d", remote.Code)
	}
}
