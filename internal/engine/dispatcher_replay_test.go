package engine

import (
	"context"
	"testing"
	"time"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/domain"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/event"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/storage"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/strategy"
)

func newJournaledDispatcher(t *testing.T, store *storage.EventStore, tr Transport) *Dispatcher {
	t.Helper()
	return NewDispatcher(DispatcherConfig{
		InboxSize:   16,
		Store:       store,
		Quoter:      strategy.NewInventorySkewQuoter(10, 0, 100),
		Gate:        strategy.RiskGate{PositionLimit: 100},
		Transport:   tr,
		Account:     "robotraders",
		OrderVolume: 1,
	})
}

func TestDispatcher_RecoverEmptyJournal(t *testing.T) {
	store, err := storage.NewEventStore(t.TempDir() + "/events.db")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	d := newJournaledDispatcher(t, store, &captureTransport{})

	lastSeq, err := d.RecoverFromJournal(context.Background())
	if err != nil {
		t.Fatalf("recovery failed on empty journal: %v", err)
	}
	if lastSeq != 0 {
		t.Errorf("lastSeq = %d, want 0", lastSeq)
	}
	if d.GetNextSeq() != 1 {
		t.Errorf("nextSeq = %d, want 1", d.GetNextSeq())
	}
}

func TestDispatcher_RecoverRebuildsState(t *testing.T) {
	dbPath := t.TempDir() + "/events.db"
	store, err := storage.NewEventStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	// Run a live session: settlement, order book, no trades.
	live := newJournaledDispatcher(t, store, &captureTransport{})
	live.processEvent(context.Background(), settlementEvent(1, "3_Weather", 8545))
	live.processEvent(context.Background(), bookEvent(2, "3_Weather", 8100, 8900))

	// Recover into a fresh dispatcher from the same journal.
	recovered := newJournaledDispatcher(t, store, &captureTransport{})
	lastSeq, err := recovered.RecoverFromJournal(context.Background())
	if err != nil {
		t.Fatalf("recovery failed: %v", err)
	}
	if lastSeq != 2 {
		t.Errorf("lastSeq = %d, want 2", lastSeq)
	}

	est, ok := recovered.Settlements().Get("3_Weather")
	if !ok || est.Value != 8545 {
		t.Errorf("settlement not recovered: %+v", est)
	}
	snap, ok := recovered.Markets().Get("3_Weather")
	if !ok || snap.BestBid != 8100 || snap.BestAsk != 8900 {
		t.Errorf("market snapshot not recovered: %+v", snap)
	}
	if recovered.GetNextSeq() != 3 {
		t.Errorf("nextSeq = %d, want 3", recovered.GetNextSeq())
	}
}

func buyEvent(seq uint64, product string, volume int64) *event.TradeEvent {
	return &event.TradeEvent{
		BaseEvent: event.BaseEvent{Seq: seq, Ts: time.Now().UnixMicro()},
		Fills: []domain.Fill{
			{Product: product, Price: 1000, Volume: volume, Buyer: "robotraders", Seller: "other"},
		},
	}
}

func TestDispatcher_StaleEventSkippedEntirely(t *testing.T) {
	store, err := storage.NewEventStore(t.TempDir() + "/events.db")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	d := newJournaledDispatcher(t, store, &captureTransport{})
	d.processEvent(context.Background(), settlementEvent(1, "P", 1000))
	d.processEvent(context.Background(), buyEvent(2, "P", 3))

	// Redelivery of an already-applied event must be a no-op: not
	// re-journaled, not re-applied to the ledgers.
	d.processEvent(context.Background(), buyEvent(2, "P", 3))

	if got := d.Positions().Get("P"); got != 3 {
		t.Errorf("position = %d, want 3 (stale fill must not double-count)", got)
	}
	if got := d.GetNextSeq(); got != 3 {
		t.Errorf("nextSeq = %d, want 3", got)
	}
	lastSeq, err := store.GetLastSeq(context.Background())
	if err != nil {
		t.Fatalf("GetLastSeq failed: %v", err)
	}
	if lastSeq != 2 {
		t.Errorf("journal lastSeq = %d, want 2 (stale event must not be journaled)", lastSeq)
	}
}

func TestDispatcher_SnapshotThenTailRecovery(t *testing.T) {
	store, err := storage.NewEventStore(t.TempDir() + "/events.db")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	live := newJournaledDispatcher(t, store, &captureTransport{})
	live.processEvent(context.Background(), settlementEvent(1, "3_Weather", 8545))
	live.processEvent(context.Background(), bookEvent(2, "3_Weather", 8100, 8900))

	snap := storage.CreateSnapshot(live.GetNextSeq()-1,
		live.Settlements().All(), live.Markets().All(), live.Positions().All())

	// One more event lands after the snapshot was taken.
	live.processEvent(context.Background(), buyEvent(3, "3_Weather", 4))

	// Recovery from snapshot replays only the tail past snap.Seq. A full
	// replay would trip the strict replay gap check on event 1.
	recovered := newJournaledDispatcher(t, store, &captureTransport{})
	recovered.RestoreSnapshot(snap)
	if recovered.GetNextSeq() != 3 {
		t.Fatalf("nextSeq after restore = %d, want 3", recovered.GetNextSeq())
	}

	lastSeq, err := recovered.RecoverFromJournal(context.Background())
	if err != nil {
		t.Fatalf("recovery failed: %v", err)
	}
	if lastSeq != 3 {
		t.Errorf("lastSeq = %d, want 3", lastSeq)
	}
	if got := recovered.Positions().Get("3_Weather"); got != 4 {
		t.Errorf("position = %d, want 4 (tail fill applied on top of snapshot)", got)
	}
	est, ok := recovered.Settlements().Get("3_Weather")
	if !ok || est.Value != 8545 {
		t.Errorf("settlement not restored from snapshot: %+v", est)
	}
	ms, ok := recovered.Markets().Get("3_Weather")
	if !ok || ms.BestBid != 8100 || ms.BestAsk != 8900 {
		t.Errorf("market snapshot not restored: %+v", ms)
	}
	if recovered.GetNextSeq() != 4 {
		t.Errorf("nextSeq = %d, want 4", recovered.GetNextSeq())
	}
}
