package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/db/clickhouse"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/utils"
	"go.uber.org/zap"
)

// DB is the validator's durable state: daily volumes, the snapshot audit log,
// wallet mappings and the miner roster, all in one ClickHouse database.
// It implements Store.
type DB struct {
	clickhouse.Client
	Name string
}

// New connects to ClickHouse and ensures the validator database and tables
// exist. Writes committed before a restart are visible after it; table DDL is
// CREATE IF NOT EXISTS only, so existing history is never dropped.
func New(ctx context.Context, logger *zap.Logger) (*DB, error) {
	dbName := clickhouse.SanitizeName(utils.Env("VALIDATOR_DB", "casinotao_validator"))

	client, err := clickhouse.New(ctx, logger.With(zap.String("db", dbName)), dbName)
	if err != nil {
		return nil, err
	}

	db := &DB{
		Client: client,
		Name:   dbName,
	}

	if err := db.InitializeDB(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// InitializeDB creates the database and every validator table.
func (db *DB) InitializeDB(ctx context.Context) error {
	if err := db.CreateDbIfNotExists(ctx, db.Name); err != nil {
		return fmt.Errorf("create database %s: %w", db.Name, err)
	}

	for _, init := range []func(context.Context) error{
		db.initDailyVolumes,
		db.initSnapshots,
		db.initWalletMappings,
		db.initMiners,
	} {
		if err := init(ctx); err != nil {
			return err
		}
	}

	db.Logger.Info("Validator database initialized", zap.String("db", db.Name))
	return nil
}

// DatabaseName returns the ClickHouse database backing this store.
func (db *DB) DatabaseName() string {
	return db.Name
}

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
