package storage

import (
	"testing"
	"time"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/domain"
)

func TestSnapshot_SaveAndLoad(t *testing.T) {
	sm := NewSnapshotManager(t.TempDir())

	snap := CreateSnapshot(100,
		map[string]domain.SettlementEstimate{
			"EISBACH_CALL": {Product: "EISBACH_CALL", Value: 1000, UpdatedAt: time.Unix(50, 0)},
		},
		map[string]domain.MarketSnapshot{
			"EISBACH_CALL": {Product: "EISBACH_CALL", BestBid: 990, BestAsk: 1010},
		},
		map[string]int64{"EISBACH_CALL": -3},
	)

	if err := sm.Save(snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := sm.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if loaded.Seq != 100 {
		t.Errorf("seq = %d, want 100", loaded.Seq)
	}
	if loaded.Settlements["EISBACH_CALL"].Value != 1000 {
		t.Error("settlement value mismatch after roundtrip")
	}
	if loaded.Positions["EISBACH_CALL"] != -3 {
		t.Error("position mismatch after roundtrip")
	}
}

func TestSnapshot_LoadLatestPicksHighestSeq(t *testing.T) {
	sm := NewSnapshotManager(t.TempDir())

	for _, seq := range []uint64{10, 50, 30} {
		snap := &Snapshot{Seq: seq, TsUnix: int64(seq)}
		if err := sm.Save(snap); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	loaded, err := sm.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if loaded.Seq != 50 {
		t.Errorf("seq = %d, want 50", loaded.Seq)
	}
}

func TestSnapshot_LoadLatestEmptyDir(t *testing.T) {
	sm := NewSnapshotManager(t.TempDir() + "/missing")

	loaded, err := sm.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if loaded != nil {
		t.Error("expected nil snapshot for missing dir")
	}
}

func TestSnapshot_Cleanup(t *testing.T) {
	sm := NewSnapshotManager(t.TempDir())

	for seq := uint64(1); seq <= 5; seq++ {
		if err := sm.Save(&Snapshot{Seq: seq, TsUnix: int64(seq)}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	if err := sm.Cleanup(2); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	loaded, err := sm.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if loaded.Seq != 5 {
		t.Errorf("latest after cleanup = %d, want 5", loaded.Seq)
	}
}
