package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/db/clickhouse"
	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
)

// initMiners creates the roster table, replace-by-uid like the volume table.
func (db *DB) initMiners(ctx context.Context) error {
	schemaSQL := validatormodels.ColumnsToSchemaSQL(validatormodels.MinerColumns)

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (uid)
	`, db.Name, validatormodels.MinersTableName, schemaSQL)
	if err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", validatormodels.MinersTableName, err)
	}

	return nil
}

// UpsertMiners refreshes the roster from the metagraph in one batch.
func (db *DB) UpsertMiners(ctx context.Context, miners []*validatormodels.Miner) error {
	if len(miners) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, validatormodels.MinersTableName,
		validatormodels.ColumnsToNameList(validatormodels.MinerColumns))

	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("upsert miners: %w", err)
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	now := time.Now().UTC()
	for _, m := range miners {
		if err := batch.Append(m.UID, m.Hotkey, m.Coldkey, m.EVMAddress, now); err != nil {
			return fmt.Errorf("upsert miners: %w", err)
		}
	}

	return batch.Send()
}

// GetMiner returns one roster entry, or nil when the uid is unknown.
func (db *DB) GetMiner(ctx context.Context, uid uint16) (*validatormodels.Miner, error) {
	query := fmt.Sprintf(`
		SELECT uid, hotkey, coldkey, evm_address, updated_at
		FROM "%s"."%s" FINAL
		WHERE uid = ?
		LIMIT 1
	`, db.Name, validatormodels.MinersTableName)

	var m validatormodels.Miner
	err := db.QueryRow(ctx, query, uid).Scan(&m.UID, &m.Hotkey, &m.Coldkey, &m.EVMAddress, &m.UpdatedAt)
	if err != nil {
		if clickhouse.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get miner %d: %w", uid, err)
	}

	return &m, nil
}

// ListMiners returns the whole roster ordered by uid.
func (db *DB) ListMiners(ctx context.Context) ([]*validatormodels.Miner, error) {
	query := fmt.Sprintf(`
		SELECT uid, hotkey, coldkey, evm_address, updated_at
		FROM "%s"."%s" FINAL
		ORDER BY uid ASC
	`, db.Name, validatormodels.MinersTableName)

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list miners: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var miners []*validatormodels.Miner
	for rows.Next() {
		var m validatormodels.Miner
		if err := rows.Scan(&m.UID, &m.Hotkey, &m.Coldkey, &m.EVMAddress, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list miners: %w", err)
		}
		miners = append(miners, &m)
	}

	return miners, rows.Err()
}
