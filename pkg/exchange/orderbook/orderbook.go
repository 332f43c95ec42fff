package orderbook

import (
	"fmt"
	"sort"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/shopspring/decimal"

	"github.com/peerdex/peerdex/pkg/exchange"
)

// OrderBook holds the resting interest for one currency market: two sorted
// collections (bids and asks) plus last-traded-price memory. It performs no
// I/O and takes no locks; the owning broker funnels every mutation through
// its single event loop.
type OrderBook struct {
	currency exchange.Currency

	bids []*exchange.Order // price descending, then sequence ascending
	asks []*exchange.Order // price ascending, then sequence ascending

	// byClient enforces at most one resting order per client and preserves
	// the original sequence number across resubmission.
	byClient map[exchange.ClientID]*exchange.Order
	lastSeq  uint64

	lastPrice *decimal.Decimal // survives matches until the book is recreated
}

func New(currency exchange.Currency) *OrderBook {
	return &OrderBook{
		currency: currency,
		byClient: make(map[exchange.ClientID]*exchange.Order),
	}
}

func (b *OrderBook) Currency() exchange.Currency { return b.currency }

// Len returns the number of resting orders across both sides.
func (b *OrderBook) Len() int { return len(b.byClient) }

// Place runs the matching step for one incoming order and returns the matches
// produced, oldest first. The order must already be validated for positivity;
// currency routing happens at the broker boundary.
//
// A placement by a client with a resting order is a resubmission: the old
// entry is replaced, but its sequence number is kept so queue priority
// survives keep-alive updates. While the incoming order crosses the best
// opposite entry it trades at the mean of the two limit prices; whatever
// remains afterwards rests in its side's collection.
func (b *OrderBook) Place(o *exchange.Order, now time.Time) []exchange.Match {
	if prev, ok := b.byClient[o.ClientID]; ok {
		o.Sequence = prev.Sequence
		b.remove(prev)
	} else {
		b.lastSeq++
		o.Sequence = b.lastSeq
	}
	o.LastActivity = now

	var matches []exchange.Match
	for o.Amount > 0 {
		best, ok := b.bestOpposite(o.Side)
		if !ok || !crosses(o, best) {
			break
		}

		traded := minAmount(o.Amount, best.Amount)
		var price decimal.Decimal
		var buyer, seller exchange.ClientID
		if o.Side == exchange.Bid {
			price = exchange.ClearingPrice(o.Price, best.Price, b.currency)
			buyer, seller = o.ClientID, best.ClientID
		} else {
			price = exchange.ClearingPrice(best.Price, o.Price, b.currency)
			buyer, seller = best.ClientID, o.ClientID
		}

		o.Amount -= traded
		best.Amount -= traded
		if o.Amount < 0 || best.Amount < 0 {
			panic(fmt.Sprintf("orderbook %s: negative remaining amount after trade of %d sat", b.currency.Code, int64(traded)))
		}
		if best.Amount == 0 {
			b.remove(best)
		}

		b.lastPrice = &price
		matches = append(matches, exchange.Match{
			Currency:   b.currency,
			Amount:     traded,
			Price:      price,
			BuyerID:    buyer,
			SellerID:   seller,
			ExecutedAt: now,
		})
	}

	if o.Amount > 0 {
		b.insert(o)
	}
	return matches
}

// Cancel removes the resting order for a client. Unknown clients are a no-op.
func (b *OrderBook) Cancel(id exchange.ClientID) bool {
	o, ok := b.byClient[id]
	if !ok {
		return false
	}
	b.remove(o)
	return true
}

// Quote projects the current best bid, best ask and last clearing price.
func (b *OrderBook) Quote() exchange.Quote {
	q := exchange.Quote{Currency: b.currency}
	if len(b.bids) > 0 {
		p := b.bids[0].Price
		q.BestBid = &p
	}
	if len(b.asks) > 0 {
		p := b.asks[0].Price
		q.BestAsk = &p
	}
	if b.lastPrice != nil {
		p := *b.lastPrice
		q.LastPrice = &p
	}
	return q
}

// Resting returns a copy of the client's resting order, if any.
func (b *OrderBook) Resting(id exchange.ClientID) (exchange.Order, bool) {
	o, ok := b.byClient[id]
	if !ok {
		return exchange.Order{}, false
	}
	return *o, true
}

// RemoveOlderThan drops every resting order whose last activity predates the
// cutoff and returns the evicted owners. Used by the expiration sweep.
func (b *OrderBook) RemoveOlderThan(cutoff time.Time) []exchange.ClientID {
	var evicted []exchange.ClientID
	for id, o := range b.byClient {
		if o.LastActivity.Before(cutoff) {
			evicted = append(evicted, id)
		}
	}
	for _, id := range evicted {
		b.remove(b.byClient[id])
	}
	return evicted
}

func (b *OrderBook) bestOpposite(s exchange.Side) (*exchange.Order, bool) {
	if s == exchange.Bid {
		if len(b.asks) == 0 {
			return nil, false
		}
		return b.asks[0], true
	}
	if len(b.bids) == 0 {
		return nil, false
	}
	return b.bids[0], true
}

// crosses reports whether the incoming order and the best opposite resting
// order can trade: bid price at or above ask price.
func crosses(incoming, resting *exchange.Order) bool {
	if incoming.Side == exchange.Bid {
		return incoming.Price.GreaterThanOrEqual(resting.Price)
	}
	return resting.Price.GreaterThanOrEqual(incoming.Price)
}

// crossed reports whether any resting bid could trade against a resting ask.
// Must stay false between placements.
func (b *OrderBook) crossed() bool {
	return len(b.bids) > 0 && len(b.asks) > 0 &&
		b.bids[0].Price.GreaterThanOrEqual(b.asks[0].Price)
}

func (b *OrderBook) insert(o *exchange.Order) {
	b.byClient[o.ClientID] = o
	if o.Side == exchange.Bid {
		i := sort.Search(len(b.bids), func(i int) bool { return bidOutranks(o, b.bids[i]) })
		b.bids = append(b.bids, nil)
		copy(b.bids[i+1:], b.bids[i:])
		b.bids[i] = o
		return
	}
	i := sort.Search(len(b.asks), func(i int) bool { return askOutranks(o, b.asks[i]) })
	b.asks = append(b.asks, nil)
	copy(b.asks[i+1:], b.asks[i:])
	b.asks[i] = o
}

func (b *OrderBook) remove(o *exchange.Order) {
	delete(b.byClient, o.ClientID)
	side := &b.asks
	if o.Side == exchange.Bid {
		side = &b.bids
	}
	for i, e := range *side {
		if e.ClientID == o.ClientID {
			*side = append((*side)[:i], (*side)[i+1:]...)
			return
		}
	}
}

// bidOutranks reports whether a takes priority over b on the bid side:
// higher price first, earlier sequence at equal price.
func bidOutranks(a, b *exchange.Order) bool {
	if !a.Price.Equal(b.Price) {
		return a.Price.GreaterThan(b.Price)
	}
	return a.Sequence < b.Sequence
}

// askOutranks is the ask-side counterpart: lower price first, then sequence.
func askOutranks(a, b *exchange.Order) bool {
	if !a.Price.Equal(b.Price) {
		return a.Price.LessThan(b.Price)
	}
	return a.Sequence < b.Sequence
}

func minAmount(a, b btcutil.Amount) btcutil.Amount {
	if a < b {
		return a
	}
	return b
}
