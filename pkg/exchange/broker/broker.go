package broker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peerdex/peerdex/pkg/exchange"
	"github.com/peerdex/peerdex/pkg/exchange/orderbook"
	"github.com/peerdex/peerdex/pkg/util"
)

// Notifier receives the matches a broker produces. Implementations deliver
// the cross to both matched parties (and may journal or gossip it).
type Notifier interface {
	NotifyCross(m exchange.Match)
}

// Notifiers fans one match out to several sinks in order.
type Notifiers []Notifier

func (ns Notifiers) NotifyCross(m exchange.Match) {
	for _, n := range ns {
		n.NotifyCross(m)
	}
}

type Config struct {
	Currency                exchange.Currency
	OrderExpirationInterval time.Duration
	InboxSize               int // buffered inbox; 0 falls back to a sane default
}

// Broker owns one currency's order book. Every request - placement,
// cancellation, quote, expiration tick - funnels through a single goroutine
// reading the inbox, so the book needs no locking and all observable effects
// are totally ordered by arrival.
type Broker struct {
	cfg      Config
	book     *orderbook.OrderBook
	inbox    chan request
	clock    util.Clock
	notifier Notifier
	log      *zap.SugaredLogger
}

type request interface{ isRequest() }

type placeReq struct{ order exchange.Order }
type cancelReq struct{ clientID exchange.ClientID }
type quoteReq struct{ reply chan exchange.Quote }

func (placeReq) isRequest()  {}
func (cancelReq) isRequest() {}
func (quoteReq) isRequest()  {}

func New(cfg Config, clock util.Clock, notifier Notifier, log *zap.SugaredLogger) *Broker {
	size := cfg.InboxSize
	if size <= 0 {
		size = 256
	}
	return &Broker{
		cfg:      cfg,
		book:     orderbook.New(cfg.Currency),
		inbox:    make(chan request, size),
		clock:    clock,
		notifier: notifier,
		log:      log.With("currency", cfg.Currency.Code),
	}
}

func (b *Broker) Currency() exchange.Currency { return b.cfg.Currency }

// Run is the broker's event loop. It MUST run in exactly one goroutine.
func (b *Broker) Run(ctx context.Context) {
	b.log.Infow("broker_started", "expiration", b.cfg.OrderExpirationInterval.String())
	sweep := b.clock.After(b.cfg.OrderExpirationInterval)
	for {
		select {
		case <-ctx.Done():
			b.log.Infow("broker_stopped")
			return
		case <-sweep:
			b.expire()
			sweep = b.clock.After(b.cfg.OrderExpirationInterval)
		case req := <-b.inbox:
			b.handle(req)
		}
	}
}

// Place submits an order. Fire-and-forget: the placer hears nothing back
// unless the order crosses, in which case the notifier carries the match.
func (b *Broker) Place(o exchange.Order) {
	b.inbox <- placeReq{order: o}
}

// Cancel removes the client's resting order, if any. Idempotent.
func (b *Broker) Cancel(id exchange.ClientID) {
	b.inbox <- cancelReq{clientID: id}
}

// Quote answers synchronously with respect to the event loop: the result
// reflects every request accepted before it, never a half-applied match.
func (b *Broker) Quote() exchange.Quote {
	reply := make(chan exchange.Quote, 1)
	b.inbox <- quoteReq{reply: reply}
	return <-reply
}

func (b *Broker) handle(req request) {
	switch r := req.(type) {
	case placeReq:
		b.place(r.order)
	case cancelReq:
		b.book.Cancel(r.clientID)
	case quoteReq:
		r.reply <- b.book.Quote()
	}
}

func (b *Broker) place(o exchange.Order) {
	// Validation failures are terminal here: logged, no reply, no mutation.
	if o.Currency != b.cfg.Currency {
		b.log.Errorw("order_rejected", "reason", "currency_mismatch",
			"client", o.ClientID, "order_currency", o.Currency.Code)
		return
	}
	if err := o.Validate(); err != nil {
		b.log.Errorw("order_rejected", "reason", "invalid_order", "err", err)
		return
	}

	matches := b.book.Place(&o, b.clock.Now())
	for _, m := range matches {
		b.log.Infow("orders_crossed",
			"buyer", m.BuyerID, "seller", m.SellerID,
			"amount_sat", int64(m.Amount), "price", m.Price.String())
		if b.notifier != nil {
			b.notifier.NotifyCross(m)
		}
	}
}

// expire silently drops orders that were not renewed within the expiration
// interval. The evicted owners are not notified.
func (b *Broker) expire() {
	cutoff := b.clock.Now().Add(-b.cfg.OrderExpirationInterval)
	evicted := b.book.RemoveOlderThan(cutoff)
	if len(evicted) > 0 {
		b.log.Infow("orders_expired", "count", len(evicted), "clients", evicted)
	}
}
