package db

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/db/clickhouse"
	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
)

// initSnapshots creates the append-only snapshot log. Plain MergeTree: there
// is deliberately no version column and no mutation path, committed vectors
// are the audit trail external observers replay.
func (db *DB) initSnapshots(ctx context.Context) error {
	schemaSQL := validatormodels.ColumnsToSchemaSQL(validatormodels.SnapshotColumns)

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = MergeTree
		ORDER BY (id)
	`, db.Name, validatormodels.SnapshotsTableName, schemaSQL)
	if err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", validatormodels.SnapshotsTableName, err)
	}

	return nil
}

// AppendSnapshot persists one committed score vector as a single batch, so
// the snapshot is visible in full or not at all. IDs must be strictly
// increasing; the caller uses the consensus block height, and the append is
// rejected if the id does not advance past the latest persisted snapshot.
func (db *DB) AppendSnapshot(ctx context.Context, snap *validatormodels.Snapshot) error {
	latest, err := db.LatestSnapshot(ctx)
	if err != nil {
		return err
	}
	if latest != nil && snap.ID <= latest.ID {
		return fmt.Errorf("snapshot id %d does not advance past latest %d", snap.ID, latest.ID)
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, validatormodels.SnapshotsTableName,
		validatormodels.ColumnsToNameList(validatormodels.SnapshotColumns))

	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	if err := batch.Append(
		snap.ID,
		snap.Timestamp,
		snap.TotalMiners,
		snap.TotalVolume,
		snap.Scores,
		snap.Weights,
	); err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	return batch.Send()
}

// LatestSnapshot returns the most recent snapshot, or nil when none exists.
func (db *DB) LatestSnapshot(ctx context.Context) (*validatormodels.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, timestamp, total_miners, total_volume, scores, weights
		FROM "%s"."%s"
		ORDER BY id DESC
		LIMIT 1
	`, db.Name, validatormodels.SnapshotsTableName)

	var snap validatormodels.Snapshot
	err := db.QueryRow(ctx, query).Scan(
		&snap.ID,
		&snap.Timestamp,
		&snap.TotalMiners,
		&snap.TotalVolume,
		&snap.Scores,
		&snap.Weights,
	)
	if err != nil {
		if clickhouse.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	return &snap, nil
}

// GetSnapshot returns the snapshot with the given id, or nil when absent.
func (db *DB) GetSnapshot(ctx context.Context, id uint64) (*validatormodels.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, timestamp, total_miners, total_volume, scores, weights
		FROM "%s"."%s"
		WHERE id = ?
		LIMIT 1
	`, db.Name, validatormodels.SnapshotsTableName)

	var snap validatormodels.Snapshot
	err := db.QueryRow(ctx, query, id).Scan(
		&snap.ID,
		&snap.Timestamp,
		&snap.TotalMiners,
		&snap.TotalVolume,
		&snap.Scores,
		&snap.Weights,
	)
	if err != nil {
		if clickhouse.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot %d: %w", id, err)
	}

	return &snap, nil
}

// ListSnapshots returns the most recent snapshot summaries, newest first.
func (db *DB) ListSnapshots(ctx context.Context, limit int) ([]*validatormodels.SnapshotSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT id, timestamp, total_miners, total_volume
		FROM "%s"."%s"
		ORDER BY id DESC
		LIMIT ?
	`, db.Name, validatormodels.SnapshotsTableName)

	var summaries []*validatormodels.SnapshotSummary
	if err := db.Select(ctx, &summaries, query, limit); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	return summaries, nil
}

// RangeSnapshots returns full snapshots with fromID <= id <= toID in
// ascending order.
func (db *DB) RangeSnapshots(ctx context.Context, fromID, toID uint64) ([]*validatormodels.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, timestamp, total_miners, total_volume, scores, weights
		FROM "%s"."%s"
		WHERE id >= ? AND id <= ?
		ORDER BY id ASC
	`, db.Name, validatormodels.SnapshotsTableName)

	rows, err := db.Query(ctx, query, fromID, toID)
	if err != nil {
		return nil, fmt.Errorf("range snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []*validatormodels.Snapshot
	for rows.Next() {
		var snap validatormodels.Snapshot
		if err := rows.Scan(
			&snap.ID,
			&snap.Timestamp,
			&snap.TotalMiners,
			&snap.TotalVolume,
			&snap.Scores,
			&snap.Weights,
		); err != nil {
			return nil, fmt.Errorf("range snapshots: %w", err)
		}
		snaps = append(snaps, &snap)
	}

	return snaps, rows.Err()
}

// IdentityHistory returns one miner's score across all snapshots that include
// it, oldest first.
func (db *DB) IdentityHistory(ctx context.Context, uid uint16) ([]*validatormodels.ScorePoint, error) {
	query := fmt.Sprintf(`
		SELECT id, timestamp, scores[?] AS score
		FROM "%s"."%s"
		WHERE mapContains(scores, ?)
		ORDER BY id ASC
	`, db.Name, validatormodels.SnapshotsTableName)

	var points []*validatormodels.ScorePoint
	if err := db.Select(ctx, &points, query, uid, uid); err != nil {
		return nil, fmt.Errorf("identity history for uid %d: %w", uid, err)
	}

	return points, nil
}
