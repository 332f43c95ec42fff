package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/peerdex/peerdex/params"
	"github.com/peerdex/peerdex/pkg/api"
	"github.com/peerdex/peerdex/pkg/exchange"
	"github.com/peerdex/peerdex/pkg/exchange/broker"
	"github.com/peerdex/peerdex/pkg/p2p"
	"github.com/peerdex/peerdex/pkg/storage"
	"github.com/peerdex/peerdex/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	// Setup logging (write to both console and file)
	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Node.LogFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Trade journal (executed matches only; books are never persisted) ----
	trades, err := storage.NewTradeStore(filepath.Join(cfg.Node.DataDir, "trades"), sugar)
	if err != nil {
		sugar.Fatalw("trade_store_open_failed", "err", err)
	}
	defer trades.Close()

	// ---- P2P: offer gossip ----
	net, err := p2p.NewNet(ctx, p2p.Config{
		ListenAddr: cfg.P2P.ListenAddr,
		Bootstrap:  cfg.P2P.Bootstrap,
		Logger:     sugar,
	})
	if err != nil {
		sugar.Fatalw("p2p_start_failed", "err", err)
	}
	defer net.Close()

	// ---- Brokers: one single-threaded matching loop per currency ----
	registry := broker.NewRegistry()
	server := api.NewServer(registry, trades, net)

	// Crosses go to the matched parties over /ws, into the journal, and out
	// to peers as market data.
	notifier := broker.Notifiers{server.Hub(), trades, net}

	for _, code := range cfg.Exchange.Currencies {
		currency, ok := exchange.CurrencyByCode(code)
		if !ok {
			sugar.Warnw("unsupported_currency_skipped", "code", code)
			continue
		}
		b := broker.New(broker.Config{
			Currency:                currency,
			OrderExpirationInterval: cfg.Exchange.OrderExpiration,
			InboxSize:               cfg.Exchange.InboxSize,
		}, util.RealClock{}, notifier, sugar)
		if err := registry.Register(b); err != nil {
			sugar.Fatalw("broker_register_failed", "currency", code, "err", err)
		}
	}
	if registry.Count() == 0 {
		sugar.Fatalw("no_markets_configured", "currencies", cfg.Exchange.Currencies)
	}

	// Inbound gossip feeds the same per-currency loops as local requests, so
	// ordering guarantees hold regardless of origin.
	net.SetHandlers(p2p.Handlers{
		OnOrder: func(o exchange.Order) {
			if b, ok := registry.Get(o.Currency.Code); ok {
				b.Place(o)
			}
		},
		OnCancel: func(currency string, id exchange.ClientID) {
			if b, ok := registry.Get(currency); ok {
				b.Cancel(id)
			}
		},
		OnTrade: func(m exchange.Match) {
			// Market data only; the local engine's own matches are the
			// journal's source of truth.
			sugar.Infow("peer_trade",
				"currency", m.Currency.Code,
				"amount_sat", int64(m.Amount), "price", m.Price.String())
		},
	})

	go registry.RunAll(ctx)

	go func() {
		if err := server.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("node_started",
		"markets", cfg.Exchange.Currencies,
		"api", cfg.API.Addr,
		"p2p", cfg.P2P.ListenAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	sugar.Infow("shutting_down")
}
