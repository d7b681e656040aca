package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/db/clickhouse"
	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
)

// initWalletMappings creates the coldkey→EVM mapping table. ReplacingMergeTree
// keyed by coldkey with the signed registration timestamp as version: a newer
// registration supersedes the old row atomically, a stale one merges away.
func (db *DB) initWalletMappings(ctx context.Context) error {
	schemaSQL := validatormodels.ColumnsToSchemaSQL(validatormodels.WalletMappingColumns)

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = ReplacingMergeTree(timestamp)
		ORDER BY (coldkey)
	`, db.Name, validatormodels.WalletMappingsTableName, schemaSQL)
	if err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", validatormodels.WalletMappingsTableName, err)
	}

	return nil
}

// SaveMapping persists a verified wallet mapping. The caller has already
// checked signature and replay rules; this write supersedes any prior mapping
// for the coldkey. EVM addresses are normalized to lowercase so ledger lookups
// are case-insensitive.
func (db *DB) SaveMapping(ctx context.Context, m *validatormodels.WalletMapping) error {
	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, validatormodels.WalletMappingsTableName,
		validatormodels.ColumnsToNameList(validatormodels.WalletMappingColumns))

	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	verifiedAt := m.VerifiedAt
	if verifiedAt.IsZero() {
		verifiedAt = time.Now().UTC()
	}

	if err := batch.Append(
		m.Coldkey,
		strings.ToLower(m.EVMAddress),
		m.Signature,
		m.Message,
		m.Timestamp,
		m.Deleted,
		verifiedAt,
	); err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}

	return batch.Send()
}

// GetMappingRow returns the latest stored row for a coldkey, tombstones
// included, or nil when the coldkey never registered. Registration fences
// against this row: a new mapping must version past whatever currently wins
// the merge, or the insert would lose to it silently.
func (db *DB) GetMappingRow(ctx context.Context, coldkey string) (*validatormodels.WalletMapping, error) {
	query := fmt.Sprintf(`
		SELECT coldkey, evm_address, signature, message, timestamp, deleted, verified_at
		FROM "%s"."%s" FINAL
		WHERE coldkey = ?
		LIMIT 1
	`, db.Name, validatormodels.WalletMappingsTableName)

	var m validatormodels.WalletMapping
	err := db.QueryRow(ctx, query, coldkey).Scan(
		&m.Coldkey,
		&m.EVMAddress,
		&m.Signature,
		&m.Message,
		&m.Timestamp,
		&m.Deleted,
		&m.VerifiedAt,
	)
	if err != nil {
		if clickhouse.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mapping for %s: %w", coldkey, err)
	}

	return &m, nil
}

// GetMapping returns the current live mapping for a coldkey, or nil when the
// coldkey never registered or its mapping was deleted.
func (db *DB) GetMapping(ctx context.Context, coldkey string) (*validatormodels.WalletMapping, error) {
	m, err := db.GetMappingRow(ctx, coldkey)
	if err != nil || m == nil {
		return nil, err
	}
	if m.Deleted != 0 {
		return nil, nil
	}
	return m, nil
}

// ResolveAddress returns the EVM address mapped to a coldkey, or "" when
// unmapped.
func (db *DB) ResolveAddress(ctx context.Context, coldkey string) (string, error) {
	m, err := db.GetMapping(ctx, coldkey)
	if err != nil || m == nil {
		return "", err
	}
	return m.EVMAddress, nil
}

// ListMappings returns every live mapping, most recently verified first.
// Signature and message are omitted from listings.
func (db *DB) ListMappings(ctx context.Context) ([]*validatormodels.WalletMapping, error) {
	query := fmt.Sprintf(`
		SELECT coldkey, evm_address, timestamp, verified_at
		FROM "%s"."%s" FINAL
		WHERE deleted = 0
		ORDER BY verified_at DESC
	`, db.Name, validatormodels.WalletMappingsTableName)

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var mappings []*validatormodels.WalletMapping
	for rows.Next() {
		var m validatormodels.WalletMapping
		if err := rows.Scan(&m.Coldkey, &m.EVMAddress, &m.Timestamp, &m.VerifiedAt); err != nil {
			return nil, fmt.Errorf("list mappings: %w", err)
		}
		mappings = append(mappings, &m)
	}

	return mappings, rows.Err()
}

// DeleteMapping supersedes a coldkey's mapping with a tombstone. Returns false
// when no live mapping existed. The tombstone's timestamp fences out replays
// of the deleted registration.
func (db *DB) DeleteMapping(ctx context.Context, coldkey string) (bool, error) {
	existing, err := db.GetMapping(ctx, coldkey)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	tombstone := &validatormodels.WalletMapping{
		Coldkey:   coldkey,
		Timestamp: time.Now().UTC().UnixMilli(),
		Deleted:   1,
	}
	if err := db.SaveMapping(ctx, tombstone); err != nil {
		return false, err
	}
	return true, nil
}
