package estimate

import (
	"context"
	"log/slog"
	"time"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/event"
)

const estimatorTimeout = 30 * time.Second

// Refresher re-runs every estimator on clock-aligned minute marks and
// emits the results as settlement events. A product whose estimator
// fails keeps its previous value; no event is emitted for it.
type Refresher struct {
	registry    *Registry
	inbox       chan<- event.Event
	seq         *uint64
	minuteMarks map[int]bool

	now func() time.Time // injectable for tests
}

// NewRefresher creates a refresher firing on the given minute marks.
func NewRefresher(registry *Registry, inbox chan<- event.Event, seq *uint64, minuteMarks []int) *Refresher {
	marks := make(map[int]bool, len(minuteMarks))
	for _, m := range minuteMarks {
		marks[m] = true
	}
	return &Refresher{
		registry:    registry,
		inbox:       inbox,
		seq:         seq,
		minuteMarks: marks,
		now:         time.Now,
	}
}

// RefreshAll runs every estimator once and emits events for the
// successful ones. Called at startup and on every minute mark.
func (r *Refresher) RefreshAll(ctx context.Context) {
	for _, product := range r.registry.Products() {
		est, ok := r.registry.Get(product)
		if !ok {
			continue
		}

		value, err := r.runOne(ctx, product, est)
		if err != nil {
			slog.Warn("Estimator failed, keeping previous value",
				slog.String("product", product),
				slog.String("estimator", est.Name()),
				slog.Any("error", err))
			continue
		}

		ev := &event.SettlementEvent{
			BaseEvent: event.BaseEvent{Seq: event.NextSeq(r.seq), Ts: r.now().UnixMicro()},
			Product:   product,
			Value:     value,
		}
		select {
		case r.inbox <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// runOne isolates a single estimator call: its own timeout, and a panic
// in one estimator never takes the refresher down.
func (r *Refresher) runOne(ctx context.Context, product string, est Estimator) (value int64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Estimator panicked",
				slog.String("product", product),
				slog.Any("panic", rec))
			err = ErrEstimatorPanic
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, estimatorTimeout)
	defer cancel()

	d, err := est.Estimate(ctx)
	if err != nil {
		return 0, err
	}
	// Exchange prices are integers; truncation toward zero matches the
	// settlement rules.
	return d.IntPart(), nil
}

// Run fires RefreshAll whenever the wall clock enters a configured
// minute mark. Each mark fires once per hour crossing, checked every
// few seconds like a cron loop.
func (r *Refresher) Run(ctx context.Context) {
	slog.Info("Settlement refresher started", slog.Int("marks", len(r.minuteMarks)))

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	lastFired := -1
	for {
		select {
		case <-ctx.Done():
			slog.Info("Settlement refresher stopping...")
			return
		case <-ticker.C:
			minute := r.now().Minute()
			if r.minuteMarks[minute] && minute != lastFired {
				lastFired = minute
				slog.Info("Running clock-aligned settlement refresh", slog.Int("minute", minute))
				r.RefreshAll(ctx)
			} else if !r.minuteMarks[minute] {
				lastFired = -1
			}
		}
	}
}
