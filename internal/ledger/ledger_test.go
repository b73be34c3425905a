package ledger

import (
	"testing"
	"time"
)

func TestSettlementLedger_UpdateAndGet(t *testing.T) {
	l := NewSettlementLedger()
	now := time.Unix(1000, 0)

	if _, ok := l.Get("3_Weather"); ok {
		t.Fatal("empty ledger should have no estimate")
	}

	l.Update("3_Weather", 8545, now)
	est, ok := l.Get("3_Weather")
	if !ok {
		t.Fatal("estimate missing after update")
	}
	if est.Value != 8545 {
		t.Errorf("Value = %d, want 8545", est.Value)
	}

	// Idempotence: same input twice leaves the stored value unchanged.
	l.Update("3_Weather", 8545, now)
	est2, _ := l.Get("3_Weather")
	if est2 != est {
		t.Errorf("repeated update changed stored estimate: %+v vs %+v", est2, est)
	}
}

func TestSettlementLedger_Products(t *testing.T) {
	l := NewSettlementLedger()
	l.Update("2_Eisbach_Call", 120, time.Now())
	l.Update("7_ETF", 99, time.Now())

	products := l.Products()
	if len(products) != 2 {
		t.Fatalf("Products() returned %d entries, want 2", len(products))
	}
	seen := map[string]bool{}
	for _, p := range products {
		seen[p] = true
	}
	if !seen["2_Eisbach_Call"] || !seen["7_ETF"] {
		t.Errorf("Products() = %v", products)
	}
}

func TestMarketBook_WholesaleOverwrite(t *testing.T) {
	b := NewMarketBook()
	t0 := time.Unix(0, 0)
	t1 := time.Unix(1, 0)

	b.Update("7_ETF", 100, 110, t0)
	b.Update("7_ETF", 95, 105, t1)

	snap, ok := b.Get("7_ETF")
	if !ok {
		t.Fatal("snapshot missing")
	}
	if snap.BestBid != 95 || snap.BestAsk != 105 {
		t.Errorf("snapshot not overwritten: %+v", snap)
	}
	if !snap.ObservedAt.Equal(t1) {
		t.Errorf("ObservedAt = %v, want %v", snap.ObservedAt, t1)
	}
}

func TestPositionLedger_AdjustDefaultsToZero(t *testing.T) {
	l := NewPositionLedger()

	if got := l.Get("5_Flights"); got != 0 {
		t.Fatalf("unseen product position = %d, want 0", got)
	}

	if got := l.Adjust("5_Flights", 3); got != 3 {
		t.Errorf("Adjust(+3) = %d, want 3", got)
	}
	if got := l.Adjust("5_Flights", -5); got != -2 {
		t.Errorf("Adjust(-5) = %d, want -2", got)
	}
}

func TestPositionLedger_ReconcileWins(t *testing.T) {
	l := NewPositionLedger()
	l.Adjust("7_ETF", 10)
	l.Adjust("3_Weather", -4)

	// Authoritative snapshot replaces everything, including products the
	// local ledger never saw and products it drifted on.
	l.Reconcile(map[string]int64{"7_ETF": 7, "2_Eisbach_Call": 1})

	if got := l.Get("7_ETF"); got != 7 {
		t.Errorf("7_ETF = %d, want 7", got)
	}
	if got := l.Get("3_Weather"); got != 0 {
		t.Errorf("3_Weather = %d, want 0 after reconcile", got)
	}
	if got := l.Get("2_Eisbach_Call"); got != 1 {
		t.Errorf("2_Eisbach_Call = %d, want 1", got)
	}
}
