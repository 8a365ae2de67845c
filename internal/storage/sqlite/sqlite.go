// Package sqlite stores detection runs in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/deepcut/internal/log"
	"github.com/chrissnell/deepcut/internal/storage"
	"github.com/chrissnell/deepcut/pkg/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

const selectRunSQL = `SELECT id, deployment, created_at, samples, params, segments FROM profile_runs`

// Store is a storage.Store backed by SQLite
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (creating if needed) the database at path. ":memory:" gives a private
// in-memory database.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite serialises writers, and an in-memory database lives on one connection
	db.SetMaxOpenConns(1)

	if err := Migrator(db).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate SQLite schema: %w", err)
	}

	log.Infof("opened SQLite results store at %s", path)
	return &Store{db: db}, nil
}

// Migrator returns a migrator for the results schema on db
func Migrator(db *sql.DB) *migrate.Migrator {
	sub, _ := fs.Sub(migrations, "migrations")
	return migrate.NewMigrator(db, migrate.NewFileProvider(sub, "schema_migrations"))
}

// SaveRun inserts run. Saving an ID twice fails.
func (s *Store) SaveRun(ctx context.Context, run storage.Run) error {
	params, segments, err := storage.EncodeRun(run)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profile_runs (id, deployment, created_at, samples, params, segments)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID.String(), run.Deployment, run.CreatedAt.UnixNano(), run.Samples, string(params), string(segments))
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun loads the run with the given ID
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (storage.Run, error) {
	row := s.db.QueryRowContext(ctx, selectRunSQL+` WHERE id = $1`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Run{}, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns the runs of deployment, oldest first
func (s *Store) ListRuns(ctx context.Context, deployment string) ([]storage.Run, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if deployment == "" {
		rows, err = s.db.QueryContext(ctx, selectRunSQL+` ORDER BY created_at, id`)
	} else {
		rows, err = s.db.QueryContext(ctx, selectRunSQL+` WHERE deployment = $1 ORDER BY created_at, id`, deployment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []storage.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CheckHealth pings the database
func (s *Store) CheckHealth(ctx context.Context) storage.Health {
	return storage.PingHealth(ctx, s.db.PingContext, func(ctx context.Context) error {
		var one int
		return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	}, "SQLite")
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (storage.Run, error) {
	var (
		run              storage.Run
		id               string
		createdAt        int64
		params, segments string
	)
	if err := row.Scan(&id, &run.Deployment, &createdAt, &run.Samples, &params, &segments); err != nil {
		return storage.Run{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return storage.Run{}, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.ID = parsed
	run.CreatedAt = time.Unix(0, createdAt).UTC()

	if err := storage.DecodeRun(&run, []byte(params), []byte(segments)); err != nil {
		return storage.Run{}, err
	}
	return run, nil
}
