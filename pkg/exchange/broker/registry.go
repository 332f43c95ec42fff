package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/peerdex/peerdex/pkg/exchange"
)

// Registry is the per-currency fan-out: it routes requests by currency code
// to the broker owning that market. Brokers themselves stay single-threaded;
// the registry only hands out handles.
type Registry struct {
	mu      sync.RWMutex
	brokers map[string]*Broker
}

func NewRegistry() *Registry {
	return &Registry{brokers: make(map[string]*Broker)}
}

// Register adds a broker. Returns an error if its currency is already served.
func (r *Registry) Register(b *Broker) error {
	if b == nil {
		return fmt.Errorf("cannot register nil broker")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code := b.Currency().Code
	if _, exists := r.brokers[code]; exists {
		return fmt.Errorf("broker for %s already registered", code)
	}
	r.brokers[code] = b
	return nil
}

// Get returns the broker serving a currency code.
func (r *Registry) Get(code string) (*Broker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.brokers[code]
	return b, ok
}

// Currencies lists the served currencies.
func (r *Registry) Currencies() []exchange.Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]exchange.Currency, 0, len(r.brokers))
	for _, b := range r.brokers {
		out = append(out, b.Currency())
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.brokers)
}

// RunAll starts every broker's event loop, one goroutine each, and blocks
// until all of them have stopped.
func (r *Registry) RunAll(ctx context.Context) {
	r.mu.RLock()
	brokers := make([]*Broker, 0, len(r.brokers))
	for _, b := range r.brokers {
		brokers = append(brokers, b)
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, b := range brokers {
		wg.Add(1)
		go func(b *Broker) {
			defer wg.Done()
			b.Run(ctx)
		}(b)
	}
	wg.Wait()
}
