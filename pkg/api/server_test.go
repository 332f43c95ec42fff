package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/peerdex/peerdex/pkg/exchange"
	"github.com/peerdex/peerdex/pkg/exchange/broker"
	"github.com/peerdex/peerdex/pkg/storage"
	"github.com/peerdex/peerdex/pkg/util"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	trades, err := storage.NewTradeStore(t.TempDir(), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("trade store: %v", err)
	}
	t.Cleanup(func() { trades.Close() })

	registry := broker.NewRegistry()
	b := broker.New(broker.Config{
		Currency:                exchange.EUR,
		OrderExpirationInterval: time.Hour,
	}, util.RealClock{}, nil, zap.NewNop().Sugar())
	if err := registry.Register(b); err != nil {
		t.Fatalf("register broker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	t.Cleanup(cancel)

	return NewServer(registry, trades, nil)
}

func postJSON(t *testing.T, s *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func getJSON(t *testing.T, s *Server, path string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if out != nil && rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	}
	return rr
}

func TestPlaceOrderAndQuote(t *testing.T) {
	s := newTestServer(t)

	rr := postJSON(t, s, "/api/v1/orders", PlaceOrderRequest{
		ClientID:   "c1",
		Currency:   "EUR",
		Side:       "bid",
		AmountSats: 1e8,
		Price:      "900",
	})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("place order status = %d, want 202: %s", rr.Code, rr.Body)
	}

	var q QuoteResponse
	if rr := getJSON(t, s, "/api/v1/markets/EUR/quote", &q); rr.Code != http.StatusOK {
		t.Fatalf("quote status = %d", rr.Code)
	}
	if q.BestBid == nil || *q.BestBid != "900" {
		t.Errorf("best bid = %v, want 900", q.BestBid)
	}
	if q.BestAsk != nil || q.LastPrice != nil {
		t.Errorf("ask/last should be empty: %+v", q)
	}
}

func TestCancelOrder(t *testing.T) {
	s := newTestServer(t)

	postJSON(t, s, "/api/v1/orders", PlaceOrderRequest{
		ClientID: "c1", Currency: "EUR", Side: "bid", AmountSats: 1e8, Price: "900",
	})
	rr := postJSON(t, s, "/api/v1/orders/cancel", CancelOrderRequest{
		ClientID: "c1", Currency: "EUR",
	})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("cancel status = %d, want 202", rr.Code)
	}

	var q QuoteResponse
	getJSON(t, s, "/api/v1/markets/EUR/quote", &q)
	if q.BestBid != nil {
		t.Errorf("best bid after cancel = %v, want nil", q.BestBid)
	}
}

func TestRejectsBadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		req  PlaceOrderRequest
		want int
	}{
		{"unknown market", PlaceOrderRequest{ClientID: "c", Currency: "USD", Side: "bid", AmountSats: 1, Price: "1"}, http.StatusNotFound},
		{"unsupported currency", PlaceOrderRequest{ClientID: "c", Currency: "XXX", Side: "bid", AmountSats: 1, Price: "1"}, http.StatusBadRequest},
		{"bad side", PlaceOrderRequest{ClientID: "c", Currency: "EUR", Side: "buy", AmountSats: 1, Price: "1"}, http.StatusBadRequest},
		{"zero amount", PlaceOrderRequest{ClientID: "c", Currency: "EUR", Side: "bid", AmountSats: 0, Price: "1"}, http.StatusBadRequest},
		{"bad price", PlaceOrderRequest{ClientID: "c", Currency: "EUR", Side: "bid", AmountSats: 1, Price: "abc"}, http.StatusBadRequest},
		{"missing client", PlaceOrderRequest{Currency: "EUR", Side: "bid", AmountSats: 1, Price: "1"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := postJSON(t, s, "/api/v1/orders", tt.req); rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestGetMarketsAndHealth(t *testing.T) {
	s := newTestServer(t)

	var markets []MarketInfo
	if rr := getJSON(t, s, "/api/v1/markets", &markets); rr.Code != http.StatusOK {
		t.Fatalf("markets status = %d", rr.Code)
	}
	if len(markets) != 1 || markets[0].Currency != "EUR" {
		t.Errorf("markets = %+v, want one EUR entry", markets)
	}

	if rr := getJSON(t, s, "/health", nil); rr.Code != http.StatusOK {
		t.Errorf("health status = %d", rr.Code)
	}
}

func TestGetTrades(t *testing.T) {
	s := newTestServer(t)

	var trades []TradeInfo
	if rr := getJSON(t, s, "/api/v1/markets/EUR/trades", &trades); rr.Code != http.StatusOK {
		t.Fatalf("trades status = %d", rr.Code)
	}
	if len(trades) != 0 {
		t.Errorf("fresh journal should be empty, got %d", len(trades))
	}

	if rr := getJSON(t, s, "/api/v1/markets/XXX/trades", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown market trades status = %d, want 404", rr.Code)
	}
}
