package validator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/db"
	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/scoring"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/utils"
)

// fetchTarget is one miner whose coldkey has a registered betting address.
type fetchTarget struct {
	uid     uint16
	address string
}

// Ingest refreshes the metagraph roster, resolves wallet mappings and pulls
// each registered miner's decay-window volume from the ledger. Per-miner
// fetch failures are counted and retried next cycle; they never abort the
// run. The ledger reports authoritative day totals, so every stored amount is
// replaced, not incremented, and re-running a cycle is idempotent.
func (e *Engine) Ingest(ctx context.Context) error {
	app := e.App

	members, err := app.Chain.Members(ctx)
	if err != nil {
		return fmt.Errorf("ingest: fetch metagraph: %w", err)
	}
	if len(members) == 0 {
		app.Logger.Warn("Metagraph returned an empty roster, skipping ingestion")
		return nil
	}

	now := time.Now().UTC()
	untilDay := db.DayOf(now)
	sinceDay := untilDay.AddDate(0, 0, -(scoring.WindowDays - 1))

	roster := make([]*validatormodels.Miner, 0, len(members))
	targets := make([]fetchTarget, 0, len(members))
	for _, m := range members {
		miner := &validatormodels.Miner{
			UID:       m.UID,
			Hotkey:    m.Hotkey,
			Coldkey:   m.Coldkey,
			UpdatedAt: now,
		}
		mapping, mapErr := app.DB.GetMapping(ctx, m.Coldkey)
		if mapErr != nil {
			app.Logger.Warn("Failed to resolve wallet mapping",
				zap.Uint16("uid", m.UID),
				zap.Error(mapErr))
		} else if mapping != nil {
			miner.EVMAddress = mapping.EVMAddress
			targets = append(targets, fetchTarget{uid: m.UID, address: mapping.EVMAddress})
		}
		roster = append(roster, miner)
	}

	if err := app.DB.UpsertMiners(ctx, roster); err != nil {
		return fmt.Errorf("ingest: upsert roster: %w", err)
	}

	maxWorkers := utils.EnvInt("INGEST_WORKERS", 8)
	queueSize := len(targets)
	if queueSize < 16 {
		queueSize = 16
	}

	pool := pond.NewPool(maxWorkers, pond.WithQueueSize(queueSize))
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	var fetched, failed atomic.Int64
	for _, t := range targets {
		t := t
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			if e.fetchTarget(groupCtx, t, sinceDay, untilDay) {
				fetched.Add(1)
			} else {
				failed.Add(1)
			}
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		app.Logger.Warn("Ingestion pool finished with error", zap.Error(err))
	}
	pool.StopAndWait()

	app.Metrics.TrackedMiners.Set(float64(len(members)))
	app.MarkIngested(time.Now())

	app.Logger.Info("Ingestion cycle complete",
		zap.Int("roster", len(members)),
		zap.Int("registered", len(targets)),
		zap.Int64("fetched", fetched.Load()),
		zap.Int64("failed", failed.Load()))
	return nil
}

// fetchTarget pulls one miner's window and stores it. Returns false when the
// miner's data could not be (fully) refreshed this cycle.
func (e *Engine) fetchTarget(ctx context.Context, t fetchTarget, sinceDay, untilDay time.Time) bool {
	app := e.App

	days, err := app.Ledger.FetchVolume(ctx, t.address, sinceDay, untilDay)
	if err != nil {
		e.noteFetchFailure(t.uid, err)
		return false
	}

	for _, d := range days {
		day := db.DayOf(d.Day)
		if day.Before(sinceDay) || day.After(untilDay) {
			continue
		}
		if err := app.DB.UpsertDay(ctx, t.uid, day, d.Amount); err != nil {
			e.noteStoreFailure(t.uid, day, err)
			return false
		}
	}

	app.Metrics.FetchSuccess.Inc()
	e.fetchFailures.Delete(t.uid)
	return true
}

// noteFetchFailure records a failed per-miner refresh. The miner keeps its
// last stored volumes and is retried on the next cycle.
func (e *Engine) noteFetchFailure(uid uint16, err error) {
	app := e.App
	app.Metrics.FetchFailures.Inc()

	count, _ := e.fetchFailures.Load(uid)
	count++
	e.fetchFailures.Store(uid, count)

	app.Logger.Warn("Ledger fetch failed",
		zap.Uint16("uid", uid),
		zap.Int("consecutive", count),
		zap.Error(err))
}

// noteStoreFailure records a failed durable write of a fetched day. Unlike a
// ledger failure this means local state is behind data we already hold, so it
// logs at error level and counts under its own metric.
func (e *Engine) noteStoreFailure(uid uint16, day time.Time, err error) {
	app := e.App
	app.Metrics.StoreWriteFailures.Inc()

	count, _ := e.fetchFailures.Load(uid)
	count++
	e.fetchFailures.Store(uid, count)

	app.Logger.Error("Volume write failed",
		zap.Uint16("uid", uid),
		zap.String("day", day.Format("2006-01-02")),
		zap.Error(err))
}
