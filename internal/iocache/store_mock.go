package iocache

import (
	"context"
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetRegistryCache implements the StoreManager interface.
func (m *MockStoreManager) GetRegistryCache() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetSnapshotStore implements the StoreManager interface.
func (m *MockStoreManager) GetSnapshotStore() contract.SnapshotStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SnapshotStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockSnapshotStore is a mock implementation of SnapshotStore for testing.
type MockSnapshotStore struct {
	mock.Mock
}

var _ contract.SnapshotStore = &MockSnapshotStore{} // Compile-time check

// Upsert implements the SnapshotStore interface.
func (m *MockSnapshotStore) Upsert(ctx context.Context, rows []schema.ScoredRepo) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

// List implements the SnapshotStore interface.
func (m *MockSnapshotStore) List(ctx context.Context, query schema.ReportQuery) ([]schema.ScoredRepo, error) {
	args := m.Called(ctx, query)
	rows, _ := args.Get(0).([]schema.ScoredRepo)
	return rows, args.Error(1)
}

// BeginScan implements the SnapshotStore interface.
func (m *MockSnapshotStore) BeginScan(source schema.ScanSource, startTime time.Time, configParams map[string]any) (string, error) {
	args := m.Called(source, startTime, configParams)
	return args.String(0), args.Error(1)
}

// EndScan implements the SnapshotStore interface.
func (m *MockSnapshotStore) EndScan(runID string, endTime time.Time, summary schema.ScanSummary) error {
	args := m.Called(runID, endTime, summary)
	return args.Error(0)
}

// ListScanRuns implements the SnapshotStore interface.
func (m *MockSnapshotStore) ListScanRuns(ctx context.Context, limit int) ([]schema.ScanRunRecord, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]schema.ScanRunRecord)
	return runs, args.Error(1)
}

// GetStatus implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetStatus() (schema.SnapshotStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.SnapshotStatus), args.Error(1)
}

// Close implements the SnapshotStore interface.
func (m *MockSnapshotStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
