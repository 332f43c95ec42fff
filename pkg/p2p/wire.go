package p2p

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/shopspring/decimal"

	"github.com/peerdex/peerdex/pkg/exchange"
)

// Wire structs carry prices as decimal strings so gossip stays independent of
// the in-memory decimal representation.

type OrderWire struct {
	ClientID   string
	Currency   string
	Side       string
	AmountSats int64
	Price      string
}

type CancelWire struct {
	Currency string
	ClientID string
}

type TradeWire struct {
	Currency   string
	AmountSats int64
	Price      string
	BuyerID    string
	SellerID   string
	ExecutedAt int64 // Unix milliseconds
}

func wireFromOrder(o exchange.Order) OrderWire {
	return OrderWire{
		ClientID:   string(o.ClientID),
		Currency:   o.Currency.Code,
		Side:       o.Side.String(),
		AmountSats: int64(o.Amount),
		Price:      o.Price.String(),
	}
}

func orderFromWire(w OrderWire) (exchange.Order, error) {
	currency, ok := exchange.CurrencyByCode(w.Currency)
	if !ok {
		return exchange.Order{}, fmt.Errorf("unsupported currency %q", w.Currency)
	}
	side, err := exchange.ParseSide(w.Side)
	if err != nil {
		return exchange.Order{}, err
	}
	price, err := decimal.NewFromString(w.Price)
	if err != nil {
		return exchange.Order{}, fmt.Errorf("bad price %q: %w", w.Price, err)
	}
	return exchange.Order{
		ClientID: exchange.ClientID(w.ClientID),
		Currency: currency,
		Side:     side,
		Amount:   btcutil.Amount(w.AmountSats),
		Price:    price,
	}, nil
}

func wireFromMatch(m exchange.Match) TradeWire {
	return TradeWire{
		Currency:   m.Currency.Code,
		AmountSats: int64(m.Amount),
		Price:      m.Price.String(),
		BuyerID:    string(m.BuyerID),
		SellerID:   string(m.SellerID),
		ExecutedAt: m.ExecutedAt.UnixMilli(),
	}
}

func matchFromWire(w TradeWire) (exchange.Match, error) {
	currency, ok := exchange.CurrencyByCode(w.Currency)
	if !ok {
		return exchange.Match{}, fmt.Errorf("unsupported currency %q", w.Currency)
	}
	price, err := decimal.NewFromString(w.Price)
	if err != nil {
		return exchange.Match{}, fmt.Errorf("bad price %q: %w", w.Price, err)
	}
	return exchange.Match{
		Currency:   currency,
		Amount:     btcutil.Amount(w.AmountSats),
		Price:      price,
		BuyerID:    exchange.ClientID(w.BuyerID),
		SellerID:   exchange.ClientID(w.SellerID),
		ExecutedAt: time.UnixMilli(w.ExecutedAt).UTC(),
	}, nil
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}
