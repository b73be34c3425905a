// Package ledger holds the agent's mutable state tables: settlement
// estimates, market snapshots, and positions. All mutation happens on the
// dispatcher goroutine (single-writer); the mutexes exist only so that
// external readers (status dumps, pollers, tests) can take consistent
// copies.
package ledger

import (
	"sync"
	"time"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/domain"
)

// SettlementLedger maps product -> latest estimated settlement value.
// A product absent from the ledger is not tradable.
type SettlementLedger struct {
	mu        sync.RWMutex
	estimates map[string]domain.SettlementEstimate
}

// NewSettlementLedger creates an empty ledger.
func NewSettlementLedger() *SettlementLedger {
	return &SettlementLedger{
		estimates: make(map[string]domain.SettlementEstimate),
	}
}

// Get returns the latest estimate for a product, if any.
func (l *SettlementLedger) Get(product string) (domain.SettlementEstimate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	est, ok := l.estimates[product]
	return est, ok
}

// Update stores a refreshed estimate. Idempotent: storing the same value
// twice leaves the mapping unchanged apart from the update timestamp.
func (l *SettlementLedger) Update(product string, value int64, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.estimates[product] = domain.SettlementEstimate{
		Product:   product,
		Value:     value,
		UpdatedAt: now,
	}
}

// Products returns the tracked product names. Used by the order-book
// poller to decide which books to request.
func (l *SettlementLedger) Products() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	products := make([]string, 0, len(l.estimates))
	for p := range l.estimates {
		products = append(products, p)
	}
	return products
}

// All returns a copy of the full table.
func (l *SettlementLedger) All() map[string]domain.SettlementEstimate {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]domain.SettlementEstimate, len(l.estimates))
	for k, v := range l.estimates {
		out[k] = v
	}
	return out
}
