package p2p

import (
	"context"
	"sync"

	libp2p "github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/peerdex/peerdex/pkg/exchange"
)

const (
	topicOrders  = "pdx-orders"
	topicCancels = "pdx-cancels"
	topicTrades  = "pdx-trades"
)

// Handlers route inbound gossip into the local brokers.
type Handlers struct {
	OnOrder  func(o exchange.Order)
	OnCancel func(currency string, id exchange.ClientID)
	OnTrade  func(m exchange.Match)
}

// Net replicates the offer book across peers: placements and cancellations
// are published over gossipsub, executed matches are announced as market
// data. Matching stays local; the network only converges the books.
type Net struct {
	h   host.Host
	ps  *pubsub.PubSub
	log *zap.SugaredLogger

	tOrders, tCancels, tTrades       *pubsub.Topic
	subOrders, subCancels, subTrades *pubsub.Subscription

	muH      sync.RWMutex
	handlers Handlers
}

type Config struct {
	ListenAddr string
	Bootstrap  []string
	Logger     *zap.SugaredLogger
}

func NewNet(ctx context.Context, cfg Config) (*Net, error) {
	var opts []libp2p.Option
	if cfg.ListenAddr != "" {
		maddr, err := ma.NewMultiaddr(cfg.ListenAddr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, libp2p.ListenAddrs(maddr))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, err
	}
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		return nil, err
	}

	net := &Net{h: h, ps: ps, log: cfg.Logger}

	for _, bs := range cfg.Bootstrap {
		if err := connectMultiaddr(ctx, h, bs); err != nil && cfg.Logger != nil {
			cfg.Logger.Warnw("bootstrap_connect_failed", "addr", bs, "err", err)
		}
	}

	if err := net.joinTopics(ctx); err != nil {
		return nil, err
	}

	go net.handleOrders(ctx)
	go net.handleCancels(ctx)
	go net.handleTrades(ctx)

	if cfg.Logger != nil {
		cfg.Logger.Infow("libp2p_ready", "peer", h.ID().String(), "listen", cfg.ListenAddr)
	}
	return net, nil
}

func connectMultiaddr(ctx context.Context, h host.Host, addr string) error {
	m, err := ma.NewMultiaddr(addr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(m)
	if err != nil {
		return err
	}
	return h.Connect(ctx, *info)
}

func (n *Net) joinTopics(ctx context.Context) error {
	var err error
	if n.tOrders, err = n.ps.Join(topicOrders); err != nil {
		return err
	}
	if n.tCancels, err = n.ps.Join(topicCancels); err != nil {
		return err
	}
	if n.tTrades, err = n.ps.Join(topicTrades); err != nil {
		return err
	}

	if n.subOrders, err = n.tOrders.Subscribe(); err != nil {
		return err
	}
	if n.subCancels, err = n.tCancels.Subscribe(); err != nil {
		return err
	}
	if n.subTrades, err = n.tTrades.Subscribe(); err != nil {
		return err
	}
	return nil
}

func (n *Net) SetHandlers(h Handlers) { n.muH.Lock(); n.handlers = h; n.muH.Unlock() }

func (n *Net) Host() host.Host { return n.h }

func (n *Net) Close() error { return n.h.Close() }

// PublishOrder gossips a locally submitted placement. Implements the API
// server's OrderGossip.
func (n *Net) PublishOrder(o exchange.Order) {
	data, err := gobEncode(wireFromOrder(o))
	if err != nil {
		n.log.Errorw("encode_order_failed", "err", err)
		return
	}
	if err := n.tOrders.Publish(context.Background(), data); err != nil {
		n.log.Warnw("publish_order_failed", "err", err)
	}
}

func (n *Net) PublishCancel(currency string, id exchange.ClientID) {
	data, err := gobEncode(CancelWire{Currency: currency, ClientID: string(id)})
	if err != nil {
		n.log.Errorw("encode_cancel_failed", "err", err)
		return
	}
	if err := n.tCancels.Publish(context.Background(), data); err != nil {
		n.log.Warnw("publish_cancel_failed", "err", err)
	}
}

// NotifyCross announces an executed match as market data. Implements
// broker.Notifier.
func (n *Net) NotifyCross(m exchange.Match) {
	data, err := gobEncode(wireFromMatch(m))
	if err != nil {
		n.log.Errorw("encode_trade_failed", "err", err)
		return
	}
	if err := n.tTrades.Publish(context.Background(), data); err != nil {
		n.log.Warnw("publish_trade_failed", "err", err)
	}
}

// inbound

func (n *Net) handleOrders(ctx context.Context) {
	for {
		msg, err := n.subOrders.Next(ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == n.h.ID() {
			continue // own publication, already placed locally
		}
		var w OrderWire
		if err := gobDecode(msg.Data, &w); err != nil {
			continue
		}
		o, err := orderFromWire(w)
		if err != nil {
			n.log.Warnw("gossip_order_dropped", "err", err)
			continue
		}

		n.muH.RLock()
		h := n.handlers
		n.muH.RUnlock()
		if h.OnOrder != nil {
			h.OnOrder(o)
		}
	}
}

func (n *Net) handleCancels(ctx context.Context) {
	for {
		msg, err := n.subCancels.Next(ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == n.h.ID() {
			continue
		}
		var w CancelWire
		if err := gobDecode(msg.Data, &w); err != nil {
			continue
		}

		n.muH.RLock()
		h := n.handlers
		n.muH.RUnlock()
		if h.OnCancel != nil {
			h.OnCancel(w.Currency, exchange.ClientID(w.ClientID))
		}
	}
}

func (n *Net) handleTrades(ctx context.Context) {
	for {
		msg, err := n.subTrades.Next(ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == n.h.ID() {
			continue
		}
		var w TradeWire
		if err := gobDecode(msg.Data, &w); err != nil {
			continue
		}
		m, err := matchFromWire(w)
		if err != nil {
			continue
		}

		n.muH.RLock()
		h := n.handlers
		n.muH.RUnlock()
		if h.OnTrade != nil {
			h.OnTrade(m)
		}
	}
}
