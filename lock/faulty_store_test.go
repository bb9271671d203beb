package lock

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/soroosh-tanzadeh/distlock/contracts"
	"github.com/soroosh-tanzadeh/distlock/store"
	"github.com/stretchr/testify/mock"
)

type faultyStore struct {
	breakFlag *atomic.Bool
	store     store.Store
}

func newFaultyStore(breakFlag bool, s store.Store) *faultyStore {
	flag := &atomic.Bool{}
	flag.Store(breakFlag)
	return &faultyStore{
		breakFlag: flag,
		store:     s,
	}
}

func (f *faultyStore) checkBreak() error {
	if f.breakFlag.Load() {
		return errors.Join(contracts.ErrStoreUnavailable, errors.New("operation aborted: break flag is set"))
	}
	return nil
}

func (f *faultyStore) CreateIfAbsent(ctx context.Context, key, value string, lease time.Duration) (bool, error) {
	if err := f.checkBreak(); err != nil {
		return false, err
	}
	return f.store.CreateIfAbsent(ctx, key, value, lease)
}

func (f *faultyStore) DeleteIfEquals(ctx context.Context, key, value string) (bool, error) {
	if err := f.checkBreak(); err != nil {
		return false, err
	}
	return f.store.DeleteIfEquals(ctx, key, value)
}

func (f *faultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := f.checkBreak(); err != nil {
		return "", false, err
	}
	return f.store.Get(ctx, key)
}

func (f *faultyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := f.checkBreak(); err != nil {
		return err
	}
	return f.store.Set(ctx, key, value, ttl)
}

func (f *faultyStore) Ping(ctx context.Context) error {
	if err := f.checkBreak(); err != nil {
		return err
	}
	return f.store.Ping(ctx)
}

func (f *faultyStore) Stats() store.PoolStats {
	return f.store.Stats()
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateIfAbsent(ctx context.Context, key, value string, lease time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, lease)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) DeleteIfEquals(ctx context.Context, key, value string) (bool, error) {
	args := m.Called(ctx, key, value)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Stats() store.PoolStats {
	return store.PoolStats{}
}
