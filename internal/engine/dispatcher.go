package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/domain"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/event"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/ledger"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/storage"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/strategy"
)

// Dispatcher is the core single-threaded event processor. All ledger
// mutations happen inside its loop; producers only send events into the
// inbox. This removes data races on the quoting hotpath by construction.
type Dispatcher struct {
	inbox chan event.Event

	settlements *ledger.SettlementLedger
	markets     *ledger.MarketBook
	positions   *ledger.PositionLedger

	nextSeq atomic.Uint64 // read by the snapshotter goroutine
	store   *storage.EventStore

	quoter strategy.Quoter
	gate   strategy.RiskGate

	backlog   *Backlog
	transport Transport

	account          string
	orderVolume      int64
	reconcileOnTrade bool
}

// DispatcherConfig wires the dispatcher's collaborators.
type DispatcherConfig struct {
	InboxSize        int
	Store            *storage.EventStore // nil disables journaling
	Quoter           strategy.Quoter
	Gate             strategy.RiskGate
	Backlog          *Backlog
	Transport        Transport // nil disables position reconciliation
	Account          string
	OrderVolume      int64
	ReconcileOnTrade bool
}

// NewDispatcher creates a dispatcher with fresh, empty ledgers.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		inbox:            make(chan event.Event, cfg.InboxSize),
		settlements:      ledger.NewSettlementLedger(),
		markets:          ledger.NewMarketBook(),
		positions:        ledger.NewPositionLedger(),
		store:            cfg.Store,
		quoter:           cfg.Quoter,
		gate:             cfg.Gate,
		backlog:          cfg.Backlog,
		transport:        cfg.Transport,
		account:          cfg.Account,
		orderVolume:      cfg.OrderVolume,
		reconcileOnTrade: cfg.ReconcileOnTrade,
	}
	d.nextSeq.Store(1)
	return d
}

// Inbox returns the event channel. External workers send events here.
func (d *Dispatcher) Inbox() chan<- event.Event {
	return d.inbox
}

// Settlements exposes the settlement ledger for external reads.
func (d *Dispatcher) Settlements() *ledger.SettlementLedger { return d.settlements }

// Markets exposes the market book for external reads.
func (d *Dispatcher) Markets() *ledger.MarketBook { return d.markets }

// Positions exposes the position ledger for external reads.
func (d *Dispatcher) Positions() *ledger.PositionLedger { return d.positions }

// RestoreSnapshot seeds the ledgers from a point-in-time snapshot and
// positions the sequence right after it, so recovery only has to replay
// the journal tail. Must be called before RecoverFromJournal and before
// the event loop starts.
func (d *Dispatcher) RestoreSnapshot(snap *storage.Snapshot) {
	for product, est := range snap.Settlements {
		d.settlements.Update(product, est.Value, est.UpdatedAt)
	}
	for product, ms := range snap.Markets {
		d.markets.Update(product, ms.BestBid, ms.BestAsk, ms.ObservedAt)
	}
	d.positions.Reconcile(snap.Positions)
	d.nextSeq.Store(snap.Seq + 1)

	slog.Info("State restored from snapshot",
		slog.Uint64("seq", snap.Seq),
		slog.Int("positions", len(snap.Positions)))
}

// RecoverFromJournal restores state by replaying journaled events from
// the current sequence onward. With a restored snapshot that is only the
// tail; without one it is the full journal. Returns the last applied
// sequence number so producers can resume from it.
func (d *Dispatcher) RecoverFromJournal(ctx context.Context) (uint64, error) {
	if d.store == nil {
		slog.Info("No journal configured, starting fresh")
		return d.GetNextSeq() - 1, nil
	}

	lastSeq, err := d.store.GetLastSeq(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get last seq: %w", err)
	}
	if lastSeq < d.GetNextSeq() {
		slog.Info("Journal has no events past current state", slog.Uint64("last_seq", lastSeq))
		return d.GetNextSeq() - 1, nil
	}

	events, err := d.store.LoadEvents(ctx, d.GetNextSeq())
	if err != nil {
		return 0, fmt.Errorf("failed to load events: %w", err)
	}

	slog.Info("Replaying events from journal",
		slog.Uint64("from_seq", d.GetNextSeq()),
		slog.Int("count", len(events)))
	d.ReplayAll(events)

	slog.Info("State recovered from journal", slog.Uint64("next_seq", d.GetNextSeq()))
	return d.GetNextSeq() - 1, nil
}

// ReplayAll replays a journaled event stream in order. Tolerated live
// gaps leave holes in the journal ids, so the sequence fast-forwards
// over them instead of tripping the strict replay check.
func (d *Dispatcher) ReplayAll(events []event.Event) {
	for _, ev := range events {
		if ev.GetSeq() > d.nextSeq.Load() {
			d.nextSeq.Store(ev.GetSeq())
		}
		d.ReplayEvent(ev)
	}
}

// GetNextSeq returns the next expected sequence number.
func (d *Dispatcher) GetNextSeq() uint64 {
	return d.nextSeq.Load()
}

// ValidateSequence checks for gaps based on strictness policy. It
// reports whether the event should be applied; stale duplicates are
// skipped entirely.
func (d *Dispatcher) ValidateSequence(evSeq uint64) bool {
	expected := d.nextSeq.Load()
	if evSeq == expected {
		return true
	}

	diff := int64(evSeq) - int64(expected)

	// Old event: already applied or superseded.
	if diff < 0 {
		slog.Warn("SEQUENCE_DUPLICATE_IGNORED", slog.Uint64("expected", expected), slog.Uint64("got", evSeq))
		return false
	}

	// Small gaps are tolerated for availability; fast-forward and continue.
	if diff <= 10 {
		slog.Warn("SEQUENCE_GAP_TOLERATED",
			slog.Uint64("expected", expected),
			slog.Uint64("got", evSeq),
			slog.Int64("gap", diff))
		d.nextSeq.Store(evSeq)
		return true
	}

	panic(fmt.Sprintf("SEQUENCE_GAP_FATAL: expected %d, got %d", expected, evSeq))
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.Info("Dispatcher started (Single-Thread Hotpath)")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			d.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Dispatcher stopping...")
			return
		case ev := <-d.inbox:
			d.processEvent(ctx, ev)
		}
	}
}

func (d *Dispatcher) processEvent(ctx context.Context, ev event.Event) {
	if !d.ValidateSequence(ev.GetSeq()) {
		return
	}

	// Journal-first: an event that cannot be persisted is never applied.
	if d.store != nil {
		if err := d.store.SaveEvent(context.Background(), ev); err != nil {
			panic(fmt.Sprintf("PERSISTENCE_FAILURE: %v", err))
		}
	}

	d.dispatch(ctx, ev, true)
	d.nextSeq.Add(1)
}

// ReplayEvent processes an event synchronously without journaling and
// without trading side effects. Used exclusively during recovery and by
// the replayer.
func (d *Dispatcher) ReplayEvent(ev event.Event) {
	if ev.GetSeq() != d.nextSeq.Load() {
		panic(fmt.Sprintf("REPLAY_GAP_DETECTED: expected %d, got %d", d.nextSeq.Load(), ev.GetSeq()))
	}

	d.dispatch(context.Background(), ev, false)
	d.nextSeq.Add(1)
}

// dispatch routes one event to its handler. live gates the trading side
// effects (order submission, position resync) so replay only rebuilds
// ledger state.
func (d *Dispatcher) dispatch(ctx context.Context, ev event.Event, live bool) {
	switch e := ev.(type) {
	case *event.OrderBookEvent:
		d.handleOrderBook(ctx, e, live)
	case *event.TradeEvent:
		d.handleTrades(ctx, e, live)
	case *event.SettlementEvent:
		d.handleSettlement(e)
	default:
		slog.Warn("Unknown event type", slog.Any("type", ev.GetType()))
	}
}

func (d *Dispatcher) handleOrderBook(ctx context.Context, e *event.OrderBookEvent, live bool) {
	// A one-sided or empty book carries no usable top-of-book.
	if len(e.BuyOrders) == 0 || len(e.SellOrders) == 0 {
		slog.Debug("Order book ignored (one-sided)", slog.String("product", e.Product))
		return
	}

	// No settlement estimate means the product is not tradable yet; the
	// snapshot is dropped too so downstream state only ever holds
	// quotable products.
	est, ok := d.settlements.Get(e.Product)
	if !ok {
		slog.Debug("Order book ignored (no settlement estimate)", slog.String("product", e.Product))
		return
	}

	bestBid := e.BuyOrders[0].Price
	bestAsk := e.SellOrders[0].Price
	d.markets.Update(e.Product, bestBid, bestAsk, time.UnixMicro(e.GetTs()))

	pos := d.positions.Get(e.Product)
	bid, ask := d.quoter.Quote(est.Value, pos)

	slog.Info("[ORDERBOOK]",
		slog.String("product", e.Product),
		slog.Int64("best_bid", bestBid),
		slog.Int64("best_ask", bestAsk),
		slog.Int64("settle", est.Value),
		slog.Int64("position", pos),
		slog.Int64("quote_bid", bid),
		slog.Int64("quote_ask", ask))

	if !live {
		return
	}

	// Each side passes the risk gate independently. A blocked side is
	// simply skipped for this cycle.
	now := time.UnixMicro(e.GetTs())
	if d.gate.CanBuy(pos, d.orderVolume) {
		d.submitOrder(ctx, domain.NewOrderRequest(e.Product, domain.SideBuy, bid, d.orderVolume, now))
	} else {
		slog.Debug("Buy side blocked by position limit",
			slog.String("product", e.Product), slog.Int64("position", pos))
	}
	if d.gate.CanSell(pos, d.orderVolume) {
		d.submitOrder(ctx, domain.NewOrderRequest(e.Product, domain.SideSell, ask, d.orderVolume, now))
	} else {
		slog.Debug("Sell side blocked by position limit",
			slog.String("product", e.Product), slog.Int64("position", pos))
	}
}

func (d *Dispatcher) submitOrder(ctx context.Context, ord domain.OrderRequest) {
	if d.backlog == nil {
		return
	}
	slog.Info("[ORDER]",
		slog.String("product", ord.Product),
		slog.String("side", string(ord.Side)),
		slog.Int64("price", ord.Price),
		slog.Int64("volume", ord.Volume))
	// Flush errors are logged inside the backlog; the event loop keeps
	// running either way.
	_, _ = d.backlog.Submit(ctx, ord)
}

func (d *Dispatcher) handleTrades(ctx context.Context, e *event.TradeEvent, live bool) {
	touched := false
	for _, fill := range e.Fills {
		switch d.account {
		case fill.Buyer:
			newPos := d.positions.Adjust(fill.Product, fill.Volume)
			touched = true
			slog.Info("[TRADE]",
				slog.String("product", fill.Product),
				slog.String("side", "BUY"),
				slog.Int64("price", fill.Price),
				slog.Int64("volume", fill.Volume),
				slog.Int64("position", newPos))
		case fill.Seller:
			newPos := d.positions.Adjust(fill.Product, -fill.Volume)
			touched = true
			slog.Info("[TRADE]",
				slog.String("product", fill.Product),
				slog.String("side", "SELL"),
				slog.Int64("price", fill.Price),
				slog.Int64("volume", fill.Volume),
				slog.Int64("position", newPos))
		}
	}

	// Local accounting drifts when fills are missed, so after any own
	// fill the exchange's report wins wholesale.
	if touched && live && d.reconcileOnTrade && d.transport != nil {
		report, err := d.transport.GetPositions(ctx)
		if err != nil {
			slog.Warn("Position resync failed, keeping local ledger", slog.Any("error", err))
			return
		}
		d.positions.Reconcile(report)
	}
}

func (d *Dispatcher) handleSettlement(e *event.SettlementEvent) {
	d.settlements.Update(e.Product, e.Value, time.UnixMicro(e.GetTs()))
	slog.Info("Settlement estimate updated",
		slog.String("product", e.Product),
		slog.Int64("value", e.Value))
}

// DumpState writes the entire internal state to a file (for post-mortem).
func (d *Dispatcher) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq     uint64                               `json:"next_seq"`
		Settlements map[string]domain.SettlementEstimate `json:"settlements"`
		Markets     map[string]domain.MarketSnapshot     `json:"markets"`
		Positions   map[string]int64                     `json:"positions"`
	}{
		NextSeq:     d.nextSeq.Load(),
		Settlements: d.settlements.All(),
		Markets:     d.markets.All(),
		Positions:   d.positions.All(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
