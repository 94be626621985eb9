package testutil

import (
	"context"
	"sync"
	"time"

	"habitd/internal/models"
	"habitd/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// HasLevel reports whether at least one entry was recorded at the given level.
func (m *MockLogger) HasLevel(level string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level {
			return true
		}
	}
	return false
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements store.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu           sync.Mutex
	Requests     int
	CacheHits    int
	CacheMisses  int
	SyncPasses   map[string]int
	Pulled       int
	Pushed       int
	MergeActions map[string]int
	Rollovers    int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		SyncPasses:   make(map[string]int),
		MergeActions: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(endpoint string, duration time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) ObservePersistenceDuration(duration time.Duration) {}
func (m *MockMetrics) IncSyncPasses(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SyncPasses[outcome]++
}
func (m *MockMetrics) ObserveSyncDuration(duration time.Duration) {}
func (m *MockMetrics) AddRecordsPulled(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pulled += n
}
func (m *MockMetrics) AddRecordsPushed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pushed += n
}
func (m *MockMetrics) IncMergeAction(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MergeActions[action]++
}
func (m *MockMetrics) IncRollovers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rollovers++
}

// MockIdentity implements providers.IdentityProviderInterface.
type MockIdentity struct {
	Owner string
	Err   error
}

func (m *MockIdentity) Resolve(ctx context.Context) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Owner, nil
}

// MockRemoteClient implements syncer.RemoteClientInterface with injectable
// behavior, recording every call.
type MockRemoteClient struct {
	mu sync.Mutex

	ListFn   func(ctx context.Context, owner string) ([]*models.RemoteTask, error)
	UpsertFn func(ctx context.Context, owner string, rec *models.HabitRecord) error
	DeleteFn func(ctx context.Context, owner, id string) error

	ListCalls  int
	Upserted   []*models.HabitRecord
	DeletedIDs []string
}

func (m *MockRemoteClient) List(ctx context.Context, owner string) ([]*models.RemoteTask, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()
	if m.ListFn != nil {
		return m.ListFn(ctx, owner)
	}
	return nil, nil
}

func (m *MockRemoteClient) Upsert(ctx context.Context, owner string, rec *models.HabitRecord) error {
	if m.UpsertFn != nil {
		if err := m.UpsertFn(ctx, owner, rec); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Upserted = append(m.Upserted, rec.Clone())
	m.mu.Unlock()
	return nil
}

func (m *MockRemoteClient) Delete(ctx context.Context, owner, id string) error {
	if m.DeleteFn != nil {
		if err := m.DeleteFn(ctx, owner, id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.DeletedIDs = append(m.DeletedIDs, id)
	m.mu.Unlock()
	return nil
}

// UpsertedIDs returns the ids pushed so far, in call order.
func (m *MockRemoteClient) UpsertedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.Upserted))
	for _, rec := range m.Upserted {
		ids = append(ids, rec.ID)
	}
	return ids
}
