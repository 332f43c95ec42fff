package exchange

import (
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/shopspring/decimal"
)

// Match is the outcome of one crossing event. The counterparties take it to
// the escrow subsystem; the matching engine itself never touches funds.
type Match struct {
	Currency   Currency
	Amount     btcutil.Amount
	Price      decimal.Decimal // clearing price
	BuyerID    ClientID
	SellerID   ClientID
	ExecutedAt time.Time
}

// Quote is a read-only projection of one market's book. Nil pointers mean the
// corresponding side (or trade history) is empty.
type Quote struct {
	Currency  Currency
	BestBid   *decimal.Decimal
	BestAsk   *decimal.Decimal
	LastPrice *decimal.Decimal
}

var two = decimal.NewFromInt(2)

// ClearingPrice is the arithmetic mean of the two crossing prices, rounded
// half away from zero to the currency's minor unit. Neither side's limit is
// favored.
func ClearingPrice(bid, ask decimal.Decimal, c Currency) decimal.Decimal {
	return bid.Add(ask).DivRound(two, c.Exponent)
}
