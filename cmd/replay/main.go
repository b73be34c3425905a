package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/arhambintariq/imc-challenge-robotraders/backtest"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/engine"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/strategy"
)

// replay rebuilds ledger state from a recorded journal and prints the
// final positions, settlements and market snapshots.
func main() {
	dbPath := flag.String("db", "", "path to the event journal (events.db)")
	dump := flag.String("dump", "", "optional path to write the final state as JSON")
	account := flag.String("account", os.Getenv("IMCITY_USERNAME"), "account name to attribute fills to (defaults to IMCITY_USERNAME)")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -db <events.db> -account <name> [-dump state.json]")
		os.Exit(2)
	}
	if *account == "" {
		fmt.Fprintln(os.Stderr, "replay: no account given, set -account or IMCITY_USERNAME (positions would stay empty)")
		os.Exit(2)
	}

	replayer, err := backtest.NewReplayer(*dbPath)
	if err != nil {
		slog.Error("Failed to open journal", slog.Any("error", err))
		os.Exit(1)
	}
	defer replayer.Close()

	d := newReplayDispatcher(*account)

	if err := replayer.RunReplay(context.Background(), d); err != nil {
		slog.Error("Replay failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Println("=== Final State ===")
	for product, est := range d.Settlements().All() {
		fmt.Printf("settlement %-20s %d\n", product, est.Value)
	}
	for product, snap := range d.Markets().All() {
		fmt.Printf("market     %-20s bid=%d ask=%d\n", product, snap.BestBid, snap.BestAsk)
	}
	for product, pos := range d.Positions().All() {
		fmt.Printf("position   %-20s %d\n", product, pos)
	}

	if *dump != "" {
		d.DumpState(*dump)
	}
}

// newReplayDispatcher builds the offline dispatcher used for journal
// replay. The account must match the name recorded in the journal's
// trade events, otherwise no fills are attributed and every replayed
// position stays zero.
func newReplayDispatcher(account string) *engine.Dispatcher {
	return engine.NewDispatcher(engine.DispatcherConfig{
		InboxSize: 1,
		Quoter:    strategy.NewInventorySkewQuoter(10, 0, 100),
		Gate:      strategy.RiskGate{PositionLimit: 100},
		Account:   account,
	})
}
