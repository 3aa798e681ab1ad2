package migration

import (
	"context"

	"loadanalysis/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysisRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_runs table")
	}

	if err := r.createAnalysisSeriesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_series table")
	}

	return nil
}

func (r *MigrationRunner) createAnalysisRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			stage VARCHAR(50) NOT NULL,
			center VARCHAR(16) NOT NULL,
			original_count INTEGER NOT NULL,
			original_mean DOUBLE PRECISION NOT NULL,
			original_median DOUBLE PRECISION NOT NULL,
			original_std DOUBLE PRECISION NOT NULL,
			cleanup_level DOUBLE PRECISION,
			threshold DOUBLE PRECISION NOT NULL,
			threshold_owner TEXT NOT NULL,
			mean_of_stds DOUBLE PRECISION NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createAnalysisSeriesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_series (
			run_id UUID NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			file_id TEXT NOT NULL,
			samples INTEGER NOT NULL,
			mean DOUBLE PRECISION NOT NULL,
			std DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, position)
		)
	`)
	return err
}
