package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
	"go.uber.org/zap"
)

// initDailyVolumes creates the per-day volume table. ReplacingMergeTree keyed
// by (uid, day) with updated_at as the version column gives replace-by-key
// upserts: re-ingesting a day inserts a newer version, FINAL reads see exactly
// one amount per key. Per-day partitions make pruning a partition drop.
func (db *DB) initDailyVolumes(ctx context.Context) error {
	schemaSQL := validatormodels.ColumnsToSchemaSQL(validatormodels.DailyVolumeColumns)

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = ReplacingMergeTree(updated_at)
		PARTITION BY day
		ORDER BY (uid, day)
	`, db.Name, validatormodels.DailyVolumesTableName, schemaSQL)
	if err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", validatormodels.DailyVolumesTableName, err)
	}

	return nil
}

// UpsertDay records the authoritative ledger total for one miner and one UTC
// day. It replaces, never increments: the ledger reports totals, and adding
// would double-count on repeated polls.
func (db *DB) UpsertDay(ctx context.Context, uid uint16, day time.Time, amount float64) error {
	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, validatormodels.DailyVolumesTableName,
		validatormodels.ColumnsToNameList(validatormodels.DailyVolumeColumns))

	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("upsert day: %w", err)
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	if err := batch.Append(uid, DayOf(day), amount, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert day: %w", err)
	}

	return batch.Send()
}

// GetWindow returns the day→amount mapping for one miner over the inclusive
// [fromDay, toDay] range. Days with no recorded volume are absent.
func (db *DB) GetWindow(ctx context.Context, uid uint16, fromDay, toDay time.Time) (map[time.Time]float64, error) {
	query := fmt.Sprintf(`
		SELECT day, amount
		FROM "%s"."%s" FINAL
		WHERE uid = ? AND day >= ? AND day <= ?
	`, db.Name, validatormodels.DailyVolumesTableName)

	rows, err := db.Query(ctx, query, uid, DayOf(fromDay), DayOf(toDay))
	if err != nil {
		return nil, fmt.Errorf("get window for uid %d: %w", uid, err)
	}
	defer func() { _ = rows.Close() }()

	window := make(map[time.Time]float64)
	for rows.Next() {
		var (
			day    time.Time
			amount float64
		)
		if err := rows.Scan(&day, &amount); err != nil {
			return nil, fmt.Errorf("get window for uid %d: %w", uid, err)
		}
		window[DayOf(day)] = amount
	}

	return window, rows.Err()
}

// GetAllWindows returns every miner's day→amount mapping over the inclusive
// [fromDay, toDay] range in a single scan, for bulk scoring.
func (db *DB) GetAllWindows(ctx context.Context, fromDay, toDay time.Time) (map[uint16]map[time.Time]float64, error) {
	query := fmt.Sprintf(`
		SELECT uid, day, amount
		FROM "%s"."%s" FINAL
		WHERE day >= ? AND day <= ?
	`, db.Name, validatormodels.DailyVolumesTableName)

	rows, err := db.Query(ctx, query, DayOf(fromDay), DayOf(toDay))
	if err != nil {
		return nil, fmt.Errorf("get all windows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	windows := make(map[uint16]map[time.Time]float64)
	for rows.Next() {
		var (
			uid    uint16
			day    time.Time
			amount float64
		)
		if err := rows.Scan(&uid, &day, &amount); err != nil {
			return nil, fmt.Errorf("get all windows: %w", err)
		}
		if windows[uid] == nil {
			windows[uid] = make(map[time.Time]float64)
		}
		windows[uid][DayOf(day)] = amount
	}

	return windows, rows.Err()
}

// DropDaysBefore removes volume rows for days strictly before cutoff by
// dropping whole per-day partitions. Returns the dropped partition values.
func (db *DB) DropDaysBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT partition
		FROM system.parts
		WHERE database = ? AND table = ? AND active = 1
		ORDER BY partition
	`

	rows, err := db.Query(ctx, query, db.Name, validatormodels.DailyVolumesTableName)
	if err != nil {
		return nil, fmt.Errorf("list volume partitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var partitions []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("list volume partitions: %w", err)
		}
		partitions = append(partitions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cutoffDay := DayOf(cutoff)
	dropped := make([]string, 0)
	for _, p := range partitions {
		day, err := time.Parse("2006-01-02", p)
		if err != nil {
			db.Logger.Warn("Skipping unparseable volume partition", zap.String("partition", p))
			continue
		}
		if !day.Before(cutoffDay) {
			continue
		}

		dropQuery := fmt.Sprintf(`ALTER TABLE "%s"."%s" DROP PARTITION '%s'`,
			db.Name, validatormodels.DailyVolumesTableName, p)
		if err := db.Exec(ctx, dropQuery); err != nil {
			return dropped, fmt.Errorf("drop volume partition %s: %w", p, err)
		}
		dropped = append(dropped, p)
	}

	return dropped, nil
}
