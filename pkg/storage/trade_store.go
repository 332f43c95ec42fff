package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/peerdex/peerdex/pkg/exchange"
)

// TradeStore journals executed matches so peers can query recent market
// history. It sits outside the matching core: the order book itself is never
// persisted and is rebuilt from fresh placements after a restart.
type TradeStore struct {
	db  *pebble.DB
	log *zap.SugaredLogger

	mu      sync.Mutex
	counter uint64 // disambiguates matches sharing a timestamp
}

func NewTradeStore(path string, log *zap.SugaredLogger) (*TradeStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open trade store: %w", err)
	}
	return &TradeStore{db: db, log: log}, nil
}

func (s *TradeStore) Close() error { return s.db.Close() }

// SaveMatch appends one match to the journal.
func (s *TradeStore) SaveMatch(m exchange.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal match: %w", err)
	}

	s.mu.Lock()
	s.counter++
	key := tradeKey(m.Currency.Code, m.ExecutedAt.UnixNano(), s.counter)
	s.mu.Unlock()

	if err := s.db.Set(key, data, pebble.NoSync); err != nil {
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

// RecentMatches returns up to limit matches for a currency, newest first.
func (s *TradeStore) RecentMatches(code string, limit int) ([]exchange.Match, error) {
	prefix := tradePrefix(code)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	defer iter.Close()

	var matches []exchange.Match
	for iter.Last(); iter.Valid() && len(matches) < limit; iter.Prev() {
		var m exchange.Match
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			continue // skip corrupt entries
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// NotifyCross lets the store sit in the broker's notifier chain. Journal
// failures must not stall matching, so they are logged and dropped.
func (s *TradeStore) NotifyCross(m exchange.Match) {
	if err := s.SaveMatch(m); err != nil {
		s.log.Errorw("trade_journal_failed", "err", err,
			"buyer", m.BuyerID, "seller", m.SellerID)
	}
}
