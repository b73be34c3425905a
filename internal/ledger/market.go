package ledger

import (
	"sync"
	"time"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/domain"
)

// MarketBook maps product -> latest observed top-of-book snapshot.
type MarketBook struct {
	mu        sync.RWMutex
	snapshots map[string]domain.MarketSnapshot
}

// NewMarketBook creates an empty snapshot store.
func NewMarketBook() *MarketBook {
	return &MarketBook{
		snapshots: make(map[string]domain.MarketSnapshot),
	}
}

// Update replaces the snapshot for a product wholesale. Callers must only
// pass best prices taken from non-empty book sides; an empty-side book is
// rejected upstream and never reaches the store.
func (b *MarketBook) Update(product string, bestBid, bestAsk int64, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots[product] = domain.MarketSnapshot{
		Product:    product,
		BestBid:    bestBid,
		BestAsk:    bestAsk,
		ObservedAt: now,
	}
}

// Get returns the latest snapshot for a product, if any.
func (b *MarketBook) Get(product string) (domain.MarketSnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap, ok := b.snapshots[product]
	return snap, ok
}

// All returns a copy of the full table.
func (b *MarketBook) All() map[string]domain.MarketSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]domain.MarketSnapshot, len(b.snapshots))
	for k, v := range b.snapshots {
		out[k] = v
	}
	return out
}
