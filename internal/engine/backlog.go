package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/domain"
)

// Transport is the exchange connectivity boundary the engine depends on.
type Transport interface {
	// SubmitBatch submits all orders as a single call. The engine never
	// retries a failed batch; retry policy belongs to the transport.
	SubmitBatch(ctx context.Context, orders []domain.OrderRequest) error

	// GetPositions returns the exchange's authoritative position report.
	GetPositions(ctx context.Context) (map[string]int64, error)
}

// Backlog accumulates accepted orders and flushes them as one batch, at
// most once per throttle interval. Eligibility is re-evaluated lazily on
// every Submit: a queued backlog with no new submissions never flushes on
// its own. The periodic order-book poll keeps Submit calls coming while
// any market is alive, which bounds queueing latency in practice.
type Backlog struct {
	mu        sync.Mutex
	pending   []domain.OrderRequest
	lastFlush time.Time
	interval  time.Duration
	transport Transport

	now func() time.Time // injectable for tests
}

// NewBacklog creates a backlog flushing through the given transport.
func NewBacklog(transport Transport, interval time.Duration) *Backlog {
	return &Backlog{
		interval:  interval,
		transport: transport,
		now:       time.Now,
	}
}

// Submit appends the order and flushes the whole backlog if the throttle
// window has elapsed. Returns whether a flush happened and the transport
// error, if any. On transport failure the batch is considered drained: a
// lost batch is a visible, non-fatal operational event, never replayed.
func (b *Backlog) Submit(ctx context.Context, order domain.OrderRequest) (bool, error) {
	b.mu.Lock()
	b.pending = append(b.pending, order)

	now := b.now()
	if now.Sub(b.lastFlush) < b.interval {
		queued := len(b.pending)
		b.mu.Unlock()
		slog.Debug("Order queued (throttle window open)",
			slog.String("product", order.Product),
			slog.String("side", string(order.Side)),
			slog.Int("backlog", queued))
		return false, nil
	}

	// Snapshot and clear atomically; the transport call happens outside
	// the lock so concurrent submits land in the next batch instead of
	// blocking.
	batch := b.pending
	b.pending = nil
	b.lastFlush = now
	b.mu.Unlock()

	err := b.transport.SubmitBatch(ctx, batch)
	if err != nil {
		slog.Error("Batch submission failed (batch dropped)",
			slog.Int("orders", len(batch)),
			slog.Any("error", err))
		return true, err
	}

	slog.Info("Batch submitted",
		slog.Int("orders", len(batch)))
	return true, nil
}

// Pending returns the number of queued orders (for monitoring).
func (b *Backlog) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
