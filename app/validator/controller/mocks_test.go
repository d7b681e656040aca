package controller_test

import (
	"context"
	"time"

	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
	"github.com/stretchr/testify/mock"
)

// Mock store over the validator database
type mockStore struct {
	mock.Mock
}

func (m *mockStore) DatabaseName() string { return "casinotao_validator_test" }

func (m *mockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) UpsertDay(ctx context.Context, uid uint16, day time.Time, amount float64) error {
	args := m.Called(ctx, uid, day, amount)
	return args.Error(0)
}

func (m *mockStore) GetWindow(ctx context.Context, uid uint16, fromDay, toDay time.Time) (map[time.Time]float64, error) {
	args := m.Called(ctx, uid, fromDay, toDay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[time.Time]float64), args.Error(1)
}

func (m *mockStore) GetAllWindows(ctx context.Context, fromDay, toDay time.Time) (map[uint16]map[time.Time]float64, error) {
	args := m.Called(ctx, fromDay, toDay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint16]map[time.Time]float64), args.Error(1)
}

func (m *mockStore) DropDaysBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockStore) AppendSnapshot(ctx context.Context, snap *validatormodels.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *mockStore) LatestSnapshot(ctx context.Context) (*validatormodels.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validatormodels.Snapshot), args.Error(1)
}

func (m *mockStore) GetSnapshot(ctx context.Context, id uint64) (*validatormodels.Snapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validatormodels.Snapshot), args.Error(1)
}

func (m *mockStore) ListSnapshots(ctx context.Context, limit int) ([]*validatormodels.SnapshotSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*validatormodels.SnapshotSummary), args.Error(1)
}

func (m *mockStore) RangeSnapshots(ctx context.Context, fromID, toID uint64) ([]*validatormodels.Snapshot, error) {
	args := m.Called(ctx, fromID, toID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*validatormodels.Snapshot), args.Error(1)
}

func (m *mockStore) IdentityHistory(ctx context.Context, uid uint16) ([]*validatormodels.ScorePoint, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*validatormodels.ScorePoint), args.Error(1)
}

func (m *mockStore) SaveMapping(ctx context.Context, mapping *validatormodels.WalletMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *mockStore) GetMapping(ctx context.Context, coldkey string) (*validatormodels.WalletMapping, error) {
	args := m.Called(ctx, coldkey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validatormodels.WalletMapping), args.Error(1)
}

func (m *mockStore) GetMappingRow(ctx context.Context, coldkey string) (*validatormodels.WalletMapping, error) {
	args := m.Called(ctx, coldkey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validatormodels.WalletMapping), args.Error(1)
}

func (m *mockStore) ResolveAddress(ctx context.Context, coldkey string) (string, error) {
	args := m.Called(ctx, coldkey)
	return args.String(0), args.Error(1)
}

func (m *mockStore) ListMappings(ctx context.Context) ([]*validatormodels.WalletMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*validatormodels.WalletMapping), args.Error(1)
}

func (m *mockStore) DeleteMapping(ctx context.Context, coldkey string) (bool, error) {
	args := m.Called(ctx, coldkey)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) UpsertMiners(ctx context.Context, miners []*validatormodels.Miner) error {
	args := m.Called(ctx, miners)
	return args.Error(0)
}

func (m *mockStore) GetMiner(ctx context.Context, uid uint16) (*validatormodels.Miner, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validatormodels.Miner), args.Error(1)
}

func (m *mockStore) ListMiners(ctx context.Context) ([]*validatormodels.Miner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*validatormodels.Miner), args.Error(1)
}
