package exchange

import (
	"context"
	"log/slog"
	"time"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/event"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/ledger"
)

// Poller periodically fetches the order book of every product that has a
// settlement estimate and feeds the results through the same event path
// as the WebSocket stream. This keeps quotes flowing when the stream is
// quiet and keeps the backlog throttle ticking.
type Poller struct {
	client      *Client
	settlements *ledger.SettlementLedger
	inbox       chan<- event.Event
	seq         *uint64
	interval    time.Duration
}

// NewPoller creates an order-book poller.
func NewPoller(client *Client, settlements *ledger.SettlementLedger, inbox chan<- event.Event, seq *uint64, interval time.Duration) *Poller {
	return &Poller{
		client:      client,
		settlements: settlements,
		inbox:       inbox,
		seq:         seq,
		interval:    interval,
	}
}

// Run polls until the context is cancelled. One failing product never
// blocks the others.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("Order book poller started", slog.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Order book poller stopping...")
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	for _, product := range p.settlements.Products() {
		book, err := p.client.GetOrderBook(ctx, product)
		if err != nil {
			slog.Warn("Order book poll failed",
				slog.String("product", product),
				slog.Any("error", err))
			continue
		}

		ev := bookToEvent(*book, event.NextSeq(p.seq))
		select {
		case p.inbox <- ev:
		case <-ctx.Done():
			return
		}
	}
}
