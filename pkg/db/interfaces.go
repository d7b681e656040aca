package db

import (
	"context"
	"time"

	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
)

// Store is the durable-state surface the validator cycles and the API consume.
// *DB implements it; tests substitute mocks.
type Store interface {
	DatabaseName() string
	Ping(ctx context.Context) error
	Close() error

	// Daily volumes (owned by ingestion)
	UpsertDay(ctx context.Context, uid uint16, day time.Time, amount float64) error
	GetWindow(ctx context.Context, uid uint16, fromDay, toDay time.Time) (map[time.Time]float64, error)
	GetAllWindows(ctx context.Context, fromDay, toDay time.Time) (map[uint16]map[time.Time]float64, error)
	DropDaysBefore(ctx context.Context, cutoff time.Time) ([]string, error)

	// Snapshot audit log (owned by emission)
	AppendSnapshot(ctx context.Context, snap *validatormodels.Snapshot) error
	LatestSnapshot(ctx context.Context) (*validatormodels.Snapshot, error)
	GetSnapshot(ctx context.Context, id uint64) (*validatormodels.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]*validatormodels.SnapshotSummary, error)
	RangeSnapshots(ctx context.Context, fromID, toID uint64) ([]*validatormodels.Snapshot, error)
	IdentityHistory(ctx context.Context, uid uint16) ([]*validatormodels.ScorePoint, error)

	// Wallet mappings (owned by registration)
	SaveMapping(ctx context.Context, m *validatormodels.WalletMapping) error
	GetMapping(ctx context.Context, coldkey string) (*validatormodels.WalletMapping, error)
	GetMappingRow(ctx context.Context, coldkey string) (*validatormodels.WalletMapping, error)
	ResolveAddress(ctx context.Context, coldkey string) (string, error)
	ListMappings(ctx context.Context) ([]*validatormodels.WalletMapping, error)
	DeleteMapping(ctx context.Context, coldkey string) (bool, error)

	// Miner roster (owned by ingestion)
	UpsertMiners(ctx context.Context, miners []*validatormodels.Miner) error
	GetMiner(ctx context.Context, uid uint16) (*validatormodels.Miner, error)
	ListMiners(ctx context.Context) ([]*validatormodels.Miner, error)
}
