package managers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/internal/storage"
	"github.com/chrissnell/deepcut/internal/storage/sqlite"
	"github.com/chrissnell/deepcut/internal/storage/storagetest"
	"github.com/chrissnell/deepcut/pkg/config"
)

func TestStorageManagerFromConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sm, err := NewStorageManager(ctx, &config.StorageData{SQLite: &config.SQLiteData{Path: ":memory:"}}, nil)
	require.NoError(t, err)
	defer sm.Close()

	require.Len(t, sm.Engines, 1)
	assert.Equal(t, "sqlite", sm.Engines[0].Name)

	h, ok := sm.Health.GetHealth("sqlite")
	require.True(t, ok)
	assert.True(t, h.Healthy())

	storagetest.Run(t, sm.Store())
}

func TestStorageManagerEmpty(t *testing.T) {
	sm, err := NewStorageManager(context.Background(), &config.StorageData{}, nil)
	require.NoError(t, err)

	assert.Nil(t, sm.Store())
	runs, err := sm.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, sm.Close())
}

func TestStorageManagerFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	primary, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	secondary, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)

	sm := &StorageManager{Health: storage.NewHealthManager()}
	sm.AddEngine(ctx, "primary", primary, time.Hour)
	sm.AddEngine(ctx, "secondary", secondary, time.Hour)
	defer sm.Close()

	run := storage.NewRun("sg042", 100, profile.DefaultParams(), []profile.Segment{{Start: 1, Peak: 2, End: 3}})
	require.NoError(t, sm.SaveRun(ctx, run))

	for _, s := range []storage.Store{primary, secondary} {
		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.Segments, got.Segments)
	}

	// A duplicate is rejected by both engines
	err = sm.SaveRun(ctx, run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary")
	assert.Contains(t, err.Error(), "secondary")

	assert.True(t, sm.Health.AllHealthy())
}

func TestNewControllerManager(t *testing.T) {
	ctx := context.Background()
	wg := &sync.WaitGroup{}
	logger := zap.NewNop().Sugar()

	_, err := NewControllerManager(ctx, wg, &config.ServerData{}, profile.DefaultParams(), nil, nil, logger)
	assert.Error(t, err)

	cm, err := NewControllerManager(ctx, wg, &config.ServerData{
		REST: &config.RESTServerData{Port: 8080},
		GRPC: &config.GRPCData{Port: 50051},
	}, profile.DefaultParams(), nil, nil, logger)
	require.NoError(t, err)
	assert.Len(t, cm.(*controllerManager).controllers, 2)

	bad := profile.DefaultParams()
	bad.RunLength = 0
	_, err = NewControllerManager(ctx, wg, &config.ServerData{REST: &config.RESTServerData{}}, bad, nil, nil, logger)
	assert.Error(t, err)
}

// countingStore counts health checks made against an in-memory SQLite store
type countingStore struct {
	*sqlite.Store
	checks atomic.Int64
}

func (c *countingStore) CheckHealth(ctx context.Context) storage.Health {
	c.checks.Add(1)
	return c.Store.CheckHealth(ctx)
}

func TestStorageManagerCloseStopsHealthMonitors(t *testing.T) {
	// The parent context outlives the manager
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inner, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	store := &countingStore{Store: inner}

	sm := &StorageManager{Health: storage.NewHealthManager()}
	sm.AddEngine(ctx, "sqlite", store, 5*time.Millisecond)

	require.Eventually(t, func() bool { return store.checks.Load() >= 3 }, 2*time.Second, time.Millisecond)
	require.NoError(t, sm.Close())

	// Let a check already in flight finish
	time.Sleep(20 * time.Millisecond)
	settled := store.checks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, store.checks.Load())
}
