package types

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/chain"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/db"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/identity"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/ledger"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/metrics"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/redis"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// LedgerReader is the volume source the ingestion cycle reads from.
// *ledger.Client implements it; tests substitute fakes.
type LedgerReader interface {
	FetchVolume(ctx context.Context, address string, sinceDay, untilDay time.Time) ([]ledger.DayVolume, error)
}

type App struct {
	// DB is the validator's durable state (volumes, snapshots, mappings, roster).
	DB db.Store

	// Ledger reads authoritative per-day betting totals.
	Ledger LedgerReader

	// Chain is the consensus boundary (metagraph, block height, weights).
	Chain chain.Client

	// Verifier checks wallet-link registration signatures.
	Verifier identity.Verifier

	// RedisClient publishes snapshot events for WebSocket streaming. Nil when
	// Redis is disabled.
	RedisClient *redis.Client

	// Metrics is the Prometheus registry served on /metrics.
	Metrics *metrics.Registry

	// Zap Logger
	Logger *zap.Logger

	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server

	// Cron drives the ingestion, emission and pruning cycles.
	Cron *cron.Cron

	// EmitMu guards snapshot creation. Emission uses TryLock: an overlapping
	// run is skipped, never queued.
	EmitMu sync.Mutex

	lastIngest atomic.Int64
	lastEmit   atomic.Int64
}

// MarkIngested stamps the completion of an ingestion cycle.
func (a *App) MarkIngested(t time.Time) {
	a.lastIngest.Store(t.UnixNano())
}

// MarkEmitted stamps a fully completed emission (snapshot appended and
// weights accepted).
func (a *App) MarkEmitted(t time.Time) {
	a.lastEmit.Store(t.UnixNano())
}

// IngestedSinceEmit reports whether at least one ingestion cycle finished
// after the last emission. After a restart both stamps are zero, so the gate
// stays closed until the first ingestion completes.
func (a *App) IngestedSinceEmit() bool {
	li := a.lastIngest.Load()
	return li > 0 && li > a.lastEmit.Load()
}

// StartCron starts the scheduler.
func (a *App) StartCron() {
	if a.Cron != nil {
		a.Cron.Start()
		a.Logger.Info("[validator] Cron started")
	}
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}

	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	_ = a.Server.Shutdown(shutdownCtx)
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
