package managers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/deepcut/internal/log"
	"github.com/chrissnell/deepcut/internal/storage"
	"github.com/chrissnell/deepcut/internal/storage/sqlite"
	"github.com/chrissnell/deepcut/internal/storage/timescaledb"
	"github.com/chrissnell/deepcut/pkg/config"
)

// StorageManager holds our active storage backends. Runs are written to every engine
// and read back from the first one configured.
type StorageManager struct {
	Engines []StorageEngine
	Health  *storage.HealthManager

	monitorCtx   context.Context
	stopMonitors context.CancelFunc
}

// StorageEngine holds a backend store and the name it is reported under
type StorageEngine struct {
	Name  string
	Store storage.Store
}

var _ storage.Store = (*StorageManager)(nil)

// NewStorageManager creates a StorageManager populated with all configured engines and
// starts a health monitor for each of them
func NewStorageManager(ctx context.Context, c *config.StorageData, health *storage.HealthManager) (*StorageManager, error) {
	s := &StorageManager{Health: health}
	if s.Health == nil {
		s.Health = storage.NewHealthManager()
	}

	if c.SQLite != nil && c.SQLite.Path != "" {
		store, err := sqlite.New(ctx, c.SQLite.Path)
		if err != nil {
			return s, fmt.Errorf("could not add SQLite storage backend: %w", err)
		}
		s.AddEngine(ctx, "sqlite", store, c.HealthCheckInterval())
	}

	if c.TimescaleDB != nil && c.TimescaleDB.ConnectionString != "" {
		store, err := timescaledb.New(ctx, c.TimescaleDB.ConnectionString)
		if err != nil {
			s.Close()
			return s, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
		s.AddEngine(ctx, "timescaledb", store, c.HealthCheckInterval())
	}

	return s, nil
}

// AddEngine adds a store under name. Stores that can report their health are monitored
// every interval until ctx is cancelled or the manager is closed.
func (s *StorageManager) AddEngine(ctx context.Context, name string, store storage.Store, interval time.Duration) {
	s.Engines = append(s.Engines, StorageEngine{Name: name, Store: store})

	if checker, ok := store.(storage.HealthChecker); ok {
		if s.stopMonitors == nil {
			s.monitorCtx, s.stopMonitors = context.WithCancel(ctx)
		}
		s.Health.StartHealthMonitor(s.monitorCtx, name, checker, interval)
	}
	log.Infof("%s storage backend enabled", name)
}

// Store returns the manager as a storage.Store, or nil when no engine is configured
func (s *StorageManager) Store() storage.Store {
	if len(s.Engines) == 0 {
		return nil
	}
	return s
}

// SaveRun writes run to every engine. A failure in any engine is returned after the
// remaining engines have been tried.
func (s *StorageManager) SaveRun(ctx context.Context, run storage.Run) error {
	var errs []error
	for _, e := range s.Engines {
		if err := e.Store.SaveRun(ctx, run); err != nil {
			log.Errorw("could not save run", "backend", e.Name, "run", run.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *StorageManager) GetRun(ctx context.Context, id uuid.UUID) (storage.Run, error) {
	if len(s.Engines) == 0 {
		return storage.Run{}, storage.ErrRunNotFound
	}
	return s.Engines[0].Store.GetRun(ctx, id)
}

func (s *StorageManager) ListRuns(ctx context.Context, deployment string) ([]storage.Run, error) {
	if len(s.Engines) == 0 {
		return []storage.Run{}, nil
	}
	return s.Engines[0].Store.ListRuns(ctx, deployment)
}

// Close stops the health monitors and closes every engine
func (s *StorageManager) Close() error {
	if s.stopMonitors != nil {
		s.stopMonitors()
	}

	var errs []error
	for _, e := range s.Engines {
		if err := e.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
		}
	}
	return errors.Join(errs...)
}
