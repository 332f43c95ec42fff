package exchange

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/shopspring/decimal"
)

type Side int8

const (
	Bid Side = 1  // buy-side interest
	Ask Side = -1 // sell-side interest
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	default:
		return "unknown"
	}
}

// ParseSide parses the wire representation of a side ("bid" or "ask").
func ParseSide(s string) (Side, error) {
	switch s {
	case "bid":
		return Bid, nil
	case "ask":
		return Ask, nil
	default:
		return 0, fmt.Errorf("invalid side %q", s)
	}
}

// ClientID identifies the peer that owns an order. A peer has at most one
// active order per currency market.
type ClientID string

// Order is one side's trading interest in a single currency market.
//
// Sequence is assigned by the book on first placement and survives
// resubmission by the same client; it is the time component of price-time
// priority. LastActivity drives expiration only, never priority.
type Order struct {
	ClientID     ClientID
	Currency     Currency
	Side         Side
	Amount       btcutil.Amount  // BTC quantity in satoshis
	Price        decimal.Decimal // limit price in the quoted currency
	Sequence     uint64
	LastActivity time.Time
}

// Validate checks the fields a peer controls. Currency routing is checked
// separately at the broker boundary.
func (o *Order) Validate() error {
	if o.ClientID == "" {
		return fmt.Errorf("order: empty client id")
	}
	if o.Side != Bid && o.Side != Ask {
		return fmt.Errorf("order %s: invalid side %d", o.ClientID, o.Side)
	}
	if o.Amount <= 0 {
		return fmt.Errorf("order %s: amount must be positive, got %d sat", o.ClientID, int64(o.Amount))
	}
	if !o.Price.IsPositive() {
		return fmt.Errorf("order %s: price must be positive, got %s", o.ClientID, o.Price)
	}
	return nil
}
