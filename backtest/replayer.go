package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/engine"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/storage"
)

// Replayer reads a recorded event journal and feeds it into a dispatcher.
// Replay runs the exact state-building code the live path runs, minus the
// trading side effects, so a session can be reconstructed offline.
type Replayer struct {
	store *storage.EventStore
}

// NewReplayer opens the journal at dbPath.
func NewReplayer(dbPath string) (*Replayer, error) {
	store, err := storage.NewEventStore(dbPath)
	if err != nil {
		return nil, err
	}
	return &Replayer{store: store}, nil
}

// RunReplay replays all journaled events into the dispatcher.
func (r *Replayer) RunReplay(ctx context.Context, d *engine.Dispatcher) error {
	events, err := r.store.LoadEvents(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	slog.Info("Replaying journal", slog.Int("events", len(events)))
	d.ReplayAll(events)
	slog.Info("Replay complete", slog.Uint64("next_seq", d.GetNextSeq()))

	return nil
}

// Close releases the journal handle.
func (r *Replayer) Close() error {
	return r.store.Close()
}
