package p2p

import (
	"testing"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/shopspring/decimal"

	"github.com/peerdex/peerdex/pkg/exchange"
)

func TestOrderWireRoundTrip(t *testing.T) {
	o := exchange.Order{
		ClientID: "peer1",
		Currency: exchange.EUR,
		Side:     exchange.Ask,
		Amount:   btcutil.Amount(60000000),
		Price:    decimal.RequireFromString("850.25"),
	}

	data, err := gobEncode(wireFromOrder(o))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var w OrderWire
	if err := gobDecode(data, &w); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, err := orderFromWire(w)
	if err != nil {
		t.Fatalf("orderFromWire: %v", err)
	}

	if got.ClientID != o.ClientID || got.Currency != o.Currency || got.Side != o.Side {
		t.Errorf("identity fields mangled: %+v", got)
	}
	if got.Amount != o.Amount || !got.Price.Equal(o.Price) {
		t.Errorf("terms mangled: %d@%s", got.Amount, got.Price)
	}
}

func TestOrderFromWireRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		wire OrderWire
	}{
		{"unknown currency", OrderWire{ClientID: "c", Currency: "XXX", Side: "bid", AmountSats: 1, Price: "1"}},
		{"unknown side", OrderWire{ClientID: "c", Currency: "EUR", Side: "long", AmountSats: 1, Price: "1"}},
		{"unparseable price", OrderWire{ClientID: "c", Currency: "EUR", Side: "bid", AmountSats: 1, Price: "1,50"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := orderFromWire(tt.wire); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestTradeWireRoundTrip(t *testing.T) {
	m := exchange.Match{
		Currency:   exchange.JPY,
		Amount:     btcutil.Amount(1e8),
		Price:      decimal.RequireFromString("851"),
		BuyerID:    "buyer",
		SellerID:   "seller",
		ExecutedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	got, err := matchFromWire(wireFromMatch(m))
	if err != nil {
		t.Fatalf("matchFromWire: %v", err)
	}
	if got.BuyerID != m.BuyerID || got.SellerID != m.SellerID || got.Currency != m.Currency {
		t.Errorf("identity fields mangled: %+v", got)
	}
	if got.Amount != m.Amount || !got.Price.Equal(m.Price) {
		t.Errorf("terms mangled: %d@%s", got.Amount, got.Price)
	}
	if !got.ExecutedAt.Equal(m.ExecutedAt) {
		t.Errorf("timestamp = %s, want %s", got.ExecutedAt, m.ExecutedAt)
	}
}
