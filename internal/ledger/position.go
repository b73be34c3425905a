package ledger

import (
	"sync"

	"github.com/arhambintariq/imc-challenge-robotraders/pkg/safe"
)

// PositionLedger maps product -> signed net volume. Entries are created
// lazily at zero on first reference.
type PositionLedger struct {
	mu        sync.RWMutex
	positions map[string]int64
}

// NewPositionLedger creates an empty ledger.
func NewPositionLedger() *PositionLedger {
	return &PositionLedger{
		positions: make(map[string]int64),
	}
}

// Get returns the signed volume for a product, 0 for unseen products.
func (l *PositionLedger) Get(product string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.positions[product]
}

// Adjust applies a fill delta (+volume for buys, -volume for sells) and
// returns the new signed volume. Called exactly once per confirmed fill.
func (l *PositionLedger) Adjust(product string, delta int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := safe.SafeAdd(l.positions[product], delta)
	l.positions[product] = next
	return next
}

// Reconcile replaces the entire table with the exchange's authoritative
// report. Last-writer-wins: any local adjustment recorded before the
// reconciliation is discarded, which corrects drift from missed fills.
func (l *PositionLedger) Reconcile(authoritative map[string]int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions = make(map[string]int64, len(authoritative))
	for product, volume := range authoritative {
		l.positions[product] = volume
	}
}

// All returns a copy of the full table.
func (l *PositionLedger) All() map[string]int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]int64, len(l.positions))
	for k, v := range l.positions {
		out[k] = v
	}
	return out
}
