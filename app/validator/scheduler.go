package validator

import (
	"context"
	"errors"
	"time"

	"github.com/Casino-TAO/casino-tao-subnet/app/validator/types"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/utils"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrStaleIngest means emission was due but no ingestion cycle has completed
// since the last emitted snapshot. The cycle is skipped, not failed: emitting
// from stale volumes would re-submit the previous epoch's weights.
var ErrStaleIngest = errors.New("no completed ingestion since last emission")

// Cron defaults. Seconds field first; emission runs on a tight cadence and
// gates itself on block-height progress, so most ticks are no-ops.
const (
	defaultIngestCron = "0 */5 * * * *"
	defaultEmitCron   = "30 * * * * *"
	defaultPruneCron  = "0 0 3 * * *"
)

// Engine runs the three periodic cycles against the shared App state.
type Engine struct {
	App *types.App

	// fetchFailures counts consecutive ledger failures per uid, reset on the
	// first successful fetch. Diagnostic only.
	fetchFailures *xsync.Map[uint16, int]
}

// NewEngine returns an Engine bound to the app.
func NewEngine(app *types.App) *Engine {
	return &Engine{
		App:           app,
		fetchFailures: xsync.NewMap[uint16, int](),
	}
}

// SetupScheduler registers the ingestion, emission and pruning cycles on a
// fresh cron and hands it to the app. The cron is not started here.
func (e *Engine) SetupScheduler(ctx context.Context) error {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	cycles := []struct {
		name    string
		spec    string
		timeout time.Duration
		run     func(context.Context) error
	}{
		{"ingest", utils.Env("INGEST_CRON", defaultIngestCron), 4 * time.Minute, e.Ingest},
		{"emit", utils.Env("EMIT_CRON", defaultEmitCron), 2 * time.Minute, e.Emit},
		{"prune", utils.Env("PRUNE_CRON", defaultPruneCron), 5 * time.Minute, e.Prune},
	}

	for _, cy := range cycles {
		cy := cy
		_, err := c.AddFunc(cy.spec, func() {
			// keep each run bounded
			rctx, cancel := context.WithTimeout(ctx, cy.timeout)
			defer cancel()
			e.runCycle(rctx, cy.name, cy.run)
		})
		if err != nil {
			return err
		}
		e.App.Logger.Info("Cycle scheduled", zap.String("cycle", cy.name), zap.String("spec", cy.spec))
	}

	e.App.Cron = c
	return nil
}

// runCycle executes one cycle run and records its outcome.
func (e *Engine) runCycle(ctx context.Context, name string, run func(context.Context) error) {
	start := time.Now()
	err := run(ctx)

	switch {
	case err == nil:
		e.App.Metrics.CycleRuns.WithLabelValues(name, "ok").Inc()
	case errors.Is(err, ErrStaleIngest):
		e.App.Metrics.CycleRuns.WithLabelValues(name, "skipped").Inc()
		e.App.Logger.Info("Emission skipped", zap.String("reason", err.Error()))
	default:
		e.App.Metrics.CycleRuns.WithLabelValues(name, "error").Inc()
		e.App.Logger.Error("Cycle failed",
			zap.String("cycle", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}
}
