package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/engine"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/estimate"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/exchange"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/infra"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/storage"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/strategy"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config     *infra.Config
	EventStore *storage.EventStore
	Client     *exchange.Client
	Dispatcher *engine.Dispatcher
	Refresher  *estimate.Refresher
	Poller     *exchange.Poller
	FeedWorker *infra.BaseWSWorker
	Snapshots  *storage.SnapshotManager

	seq    uint64
	unlock func()
}

// NewBootstrap creates an empty bootstrap.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and wires every component. No network
// calls happen here except the exchange login.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	// .env is optional; real deployments export the variables directly.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	slog.SetDefault(infra.NewLogger(cfg))
	infra.PrintBanner(cfg)

	mode := strings.ToLower(cfg.Trading.Mode)
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)
	logDir := filepath.Join(workDir, "logs", mode)

	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := infra.EnsureDir(logDir); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}

	// One process per workspace; two agents sharing a journal would
	// corrupt the sequence stream.
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	dbPath := filepath.Join(dataDir, "events.db")
	store, err := storage.NewEventStore(dbPath)
	if err != nil {
		return err
	}
	b.EventStore = store
	slog.Info("Event journal initialized", slog.String("path", dbPath), slog.String("mode", mode))

	b.Snapshots = storage.NewSnapshotManager(filepath.Join(dataDir, "snapshots"))

	creds := exchange.Credentials{
		Username: cfg.Exchange.Username,
		Password: cfg.Exchange.Password,
	}
	if creds.Username == "" || creds.Password == "" {
		creds, err = exchange.CredentialsFromEnv()
		if err != nil {
			return err
		}
	}

	b.Client = exchange.NewClient(cfg.RestURL(), creds)
	if err := b.Client.Login(ctx); err != nil {
		return fmt.Errorf("exchange login failed: %w", err)
	}

	quoter := strategy.NewInventorySkewQuoter(cfg.Trading.SpreadPct, cfg.Trading.SkewIntensity, cfg.Trading.PositionLimit)
	backlog := engine.NewBacklog(b.Client, time.Duration(cfg.Trading.ThrottleIntervalSec)*time.Second)

	b.Dispatcher = engine.NewDispatcher(engine.DispatcherConfig{
		InboxSize:        1024,
		Store:            store,
		Quoter:           quoter,
		Gate:             strategy.RiskGate{PositionLimit: cfg.Trading.PositionLimit},
		Backlog:          backlog,
		Transport:        b.Client,
		Account:          creds.Username,
		OrderVolume:      cfg.Trading.OrderVolume,
		ReconcileOnTrade: cfg.Trading.ReconcileOnTrade,
	})

	// Snapshot-assisted recovery: seed the ledgers from the newest
	// snapshot, then replay only the journal tail past it.
	snap, err := b.Snapshots.LoadLatest()
	if err != nil {
		slog.Warn("Failed to load snapshot, replaying full journal", slog.Any("error", err))
	} else if snap != nil {
		b.Dispatcher.RestoreSnapshot(snap)
	}

	lastSeq, err := b.Dispatcher.RecoverFromJournal(ctx)
	if err != nil {
		return fmt.Errorf("journal recovery failed: %w", err)
	}
	b.seq = lastSeq

	registry, err := estimate.BuildRegistry(cfg)
	if err != nil {
		return err
	}
	b.Refresher = estimate.NewRefresher(registry, b.Dispatcher.Inbox(), &b.seq, cfg.Estimate.RefreshMinuteMarks)

	feed := exchange.NewFeed(cfg.WSURL(), b.Client.Token, b.Dispatcher.Inbox(), &b.seq)
	b.FeedWorker = infra.NewBaseWSWorker(feed)

	b.Poller = exchange.NewPoller(b.Client, b.Dispatcher.Settlements(), b.Dispatcher.Inbox(), &b.seq,
		time.Duration(cfg.Trading.PollIntervalSec)*time.Second)

	return nil
}

// Run starts all workers and blocks until the context is cancelled.
func (b *Bootstrap) Run(ctx context.Context) {
	// Startup position sync. The exchange report wins over anything the
	// journal rebuilt; fills can have happened while we were down.
	if report, err := b.Client.GetPositions(ctx); err != nil {
		slog.Warn("Startup position sync failed, keeping recovered ledger", slog.Any("error", err))
	} else {
		b.Dispatcher.Positions().Reconcile(report)
		slog.Info("Positions synced from exchange", slog.Int("products", len(report)))
		if err := b.EventStore.UpsertMetadata(ctx, "last_position_sync",
			time.Now().UTC().Format(time.RFC3339), time.Now().UnixMicro()); err != nil {
			slog.Warn("Failed to record sync marker", slog.Any("error", err))
		}
	}

	go b.Dispatcher.Run(ctx)

	// Estimates must exist before the first order book arrives, so the
	// initial refresh runs before the feed and poller start.
	b.Refresher.RefreshAll(ctx)
	go b.Refresher.Run(ctx)

	b.FeedWorker.Start(ctx)
	go b.Poller.Run(ctx)

	go b.runSnapshotter(ctx)

	<-ctx.Done()
	b.Shutdown()
}

// snapshotInterval bounds how much journal tail a restart has to replay.
const snapshotInterval = 15 * time.Minute

// runSnapshotter writes periodic ledger snapshots so the next start only
// replays the journal tail written since the last one.
func (b *Bootstrap) runSnapshotter(ctx context.Context) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.saveSnapshot()
		}
	}
}

func (b *Bootstrap) saveSnapshot() {
	snap := storage.CreateSnapshot(b.Dispatcher.GetNextSeq()-1,
		b.Dispatcher.Settlements().All(),
		b.Dispatcher.Markets().All(),
		b.Dispatcher.Positions().All())
	if err := b.Snapshots.Save(snap); err != nil {
		slog.Warn("Failed to save snapshot", slog.Any("error", err))
		return
	}
	if err := b.Snapshots.Cleanup(5); err != nil {
		slog.Warn("Snapshot cleanup failed", slog.Any("error", err))
	}
}

// Shutdown stops the workers and releases resources.
func (b *Bootstrap) Shutdown() {
	slog.Info("Shutting down...")

	if b.FeedWorker != nil {
		b.FeedWorker.Stop()
	}

	// Ledger snapshot for fast recovery next start.
	if b.Snapshots != nil && b.Dispatcher != nil {
		b.saveSnapshot()
	}

	if b.EventStore != nil {
		if err := b.EventStore.Close(); err != nil {
			slog.Warn("Failed to close journal", slog.Any("error", err))
		}
	}
	if b.unlock != nil {
		b.unlock()
	}

	slog.Info("Shutdown complete")
}
