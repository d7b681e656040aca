package validator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/db"
	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/redis"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/scoring"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/utils"
)

// Emit scores the current decay window, appends a snapshot at the current
// block height and submits the normalized weight vector. Exactly one emission
// runs at a time: an overlapping tick is skipped. The snapshot is committed
// before weight submission, so a failed submission still leaves an audit
// record and is retried next epoch.
func (e *Engine) Emit(ctx context.Context) error {
	app := e.App

	if !app.EmitMu.TryLock() {
		app.Metrics.CycleRuns.WithLabelValues("emit", "skipped").Inc()
		app.Logger.Info("Emission already running, skipping this tick")
		return nil
	}
	defer app.EmitMu.Unlock()

	if !app.IngestedSinceEmit() {
		return ErrStaleIngest
	}

	height, err := app.Chain.CurrentBlock(ctx)
	if err != nil {
		return fmt.Errorf("emit: current block: %w", err)
	}

	latest, err := app.DB.LatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("emit: latest snapshot: %w", err)
	}

	// Snapshot ids are block heights, so the epoch gate is a height delta.
	interval := uint64(utils.EnvInt("EMISSION_BLOCKS", 360))
	if latest != nil && height < latest.ID+interval {
		app.Logger.Debug("Emission not due yet",
			zap.Uint64("height", height),
			zap.Uint64("lastSnapshot", latest.ID),
			zap.Uint64("interval", interval))
		return nil
	}

	now := time.Now().UTC()
	refDay := db.DayOf(now)
	sinceDay := refDay.AddDate(0, 0, -(scoring.WindowDays - 1))

	windows, err := app.DB.GetAllWindows(ctx, sinceDay, refDay)
	if err != nil {
		return fmt.Errorf("emit: load windows: %w", err)
	}

	scores := scoring.ScoreAll(windows, refDay)
	weights := scoring.Normalize(scores)

	// Weights exclude zero scores, so their count is the number of miners
	// that actually earned this epoch. Zero-score miners still appear in
	// Scores for the audit trail.
	snap := &validatormodels.Snapshot{
		ID:          height,
		Timestamp:   now,
		TotalMiners: uint16(len(weights)),
		TotalVolume: scoring.WindowTotal(windows),
		Scores:      scores,
		Weights:     weights,
	}

	if err := app.DB.AppendSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("emit: append snapshot: %w", err)
	}
	app.Metrics.SnapshotsCommitted.Inc()

	if err := app.Chain.SubmitWeights(ctx, weights); err != nil {
		return fmt.Errorf("emit: submit weights for snapshot %d: %w", snap.ID, err)
	}
	app.Metrics.WeightsSubmitted.Inc()
	app.MarkEmitted(time.Now())

	if app.RedisClient != nil {
		app.RedisClient.PublishSnapshotCommitted(ctx, redis.SnapshotCommittedEvent{
			SnapshotID:  snap.ID,
			Timestamp:   snap.Timestamp,
			TotalMiners: snap.TotalMiners,
			TotalVolume: snap.TotalVolume,
		})
	}

	app.Logger.Info("Snapshot emitted",
		zap.Uint64("id", snap.ID),
		zap.Uint16("miners", snap.TotalMiners),
		zap.Int("weights", len(weights)),
		zap.Float64("totalVolume", snap.TotalVolume))
	return nil
}
