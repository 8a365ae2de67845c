// Package timescaledb stores detection runs in a TimescaleDB hypertable.
package timescaledb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"gorm.io/gorm"

	"github.com/chrissnell/deepcut/internal/database"
	"github.com/chrissnell/deepcut/internal/log"
	"github.com/chrissnell/deepcut/internal/storage"
)

// Storage is a storage.Store backed by TimescaleDB
type Storage struct {
	TimescaleDBConn *gorm.DB
}

var _ storage.Store = (*Storage)(nil)

// We declare the Tabler interface for purposes of customizing the table name in the DB
type Tabler interface {
	TableName() string
}

type runRecord struct {
	ID         uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	Deployment string       `gorm:"column:deployment"`
	CreatedAt  time.Time    `gorm:"column:created_at;primaryKey"`
	Samples    int          `gorm:"column:samples"`
	Params     pgtype.JSONB `gorm:"column:params;type:jsonb"`
	Segments   pgtype.JSONB `gorm:"column:segments;type:jsonb"`
}

var _ Tabler = runRecord{}

func (runRecord) TableName() string {
	return "profile_runs"
}

// New connects to TimescaleDB and creates the runs hypertable
func New(ctx context.Context, connectionString string) (*Storage, error) {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	t := &Storage{TimescaleDBConn: db}

	steps := []struct {
		name string
		sql  string
	}{
		{"TimescaleDB extension", createExtensionSQL},
		{"profile_runs table", createTableSQL},
		{"hypertable", createHypertableSQL},
		{"deployment index", createDeploymentIndexSQL},
		{"profile counts view", createSegmentCountsViewSQL},
	}
	for _, step := range steps {
		log.Infof("creating %s...", step.name)
		if err := db.WithContext(ctx).Exec(step.sql).Error; err != nil {
			log.Warnf("warning: could not create %s", step.name)
			return nil, fmt.Errorf("failed to create %s: %w", step.name, err)
		}
	}

	return t, nil
}

// NewWithDB uses an existing gorm connection whose schema is already in place
func NewWithDB(db *gorm.DB) *Storage {
	return &Storage{TimescaleDBConn: db}
}

// SaveRun inserts run. Saving an ID twice fails.
func (t *Storage) SaveRun(ctx context.Context, run storage.Run) error {
	params, segments, err := storage.EncodeRun(run)
	if err != nil {
		return err
	}

	rec := runRecord{
		ID:         run.ID,
		Deployment: run.Deployment,
		CreatedAt:  run.CreatedAt,
		Samples:    run.Samples,
		Params:     pgtype.JSONB{Bytes: params, Status: pgtype.Present},
		Segments:   pgtype.JSONB{Bytes: segments, Status: pgtype.Present},
	}
	if err := t.TimescaleDBConn.WithContext(ctx).Create(&rec).Error; err != nil {
		log.Error("could not store run:", err)
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun loads the run with the given ID
func (t *Storage) GetRun(ctx context.Context, id uuid.UUID) (storage.Run, error) {
	var rec runRecord
	err := t.TimescaleDBConn.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.Run{}, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	if err != nil {
		return storage.Run{}, fmt.Errorf("error querying run %s: %w", id, err)
	}
	return rec.toRun()
}

// ListRuns returns the runs of deployment, oldest first
func (t *Storage) ListRuns(ctx context.Context, deployment string) ([]storage.Run, error) {
	q := t.TimescaleDBConn.WithContext(ctx).Order("created_at, id")
	if deployment != "" {
		q = q.Where("deployment = ?", deployment)
	}

	var recs []runRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}

	runs := make([]storage.Run, 0, len(recs))
	for _, rec := range recs {
		run, err := rec.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Close closes the underlying connection pool
func (t *Storage) Close() error {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (rec runRecord) toRun() (storage.Run, error) {
	run := storage.Run{
		ID:         rec.ID,
		Deployment: rec.Deployment,
		CreatedAt:  rec.CreatedAt.UTC(),
		Samples:    rec.Samples,
	}
	if err := storage.DecodeRun(&run, rec.Params.Bytes, rec.Segments.Bytes); err != nil {
		return storage.Run{}, err
	}
	return run, nil
}
