package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"loadanalysis/domain/core"
	"loadanalysis/domain/run"
	"loadanalysis/domain/series"
	"loadanalysis/internal/errors"
	"loadanalysis/ports"

	"github.com/jmoiron/sqlx"
)

var _ ports.ResultRepository = (*ResultRepository)(nil)

type runRow struct {
	ID             string          `db:"id"`
	CreatedAt      time.Time       `db:"created_at"`
	Stage          string          `db:"stage"`
	Center         string          `db:"center"`
	OriginalCount  int             `db:"original_count"`
	OriginalMean   float64         `db:"original_mean"`
	OriginalMedian float64         `db:"original_median"`
	OriginalStd    float64         `db:"original_std"`
	CleanupLevel   sql.NullFloat64 `db:"cleanup_level"`
	Threshold      float64         `db:"threshold"`
	ThresholdOwner string          `db:"threshold_owner"`
	MeanOfStds     float64         `db:"mean_of_stds"`
}

type seriesRow struct {
	Position int     `db:"position"`
	FileID   string  `db:"file_id"`
	Samples  int     `db:"samples"`
	Mean     float64 `db:"mean"`
	Std      float64 `db:"std"`
}

// ResultRepository stores analyzed runs in PostgreSQL
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// SaveRun inserts the run and its per-series rows in one transaction
func (r *ResultRepository) SaveRun(ctx context.Context, result *run.Result) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var cleanupLevel sql.NullFloat64
	if result.Cleaning != nil {
		cleanupLevel = sql.NullFloat64{Float64: result.Cleaning.Level, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			id, created_at, stage, center,
			original_count, original_mean, original_median, original_std,
			cleanup_level, threshold, threshold_owner, mean_of_stds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		result.RunID.String(),
		result.CreatedAt,
		string(result.Stage),
		string(result.Center),
		result.Original.Count,
		result.Original.Mean,
		result.Original.Median,
		result.Original.Std,
		cleanupLevel,
		result.Threshold,
		result.ThresholdOwner,
		result.Aggregate.MeanOfStds,
	)
	if err != nil {
		return errors.DatabaseError("failed to insert analysis run", err)
	}

	for i, fa := range result.Aggregate.PerSeries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO analysis_series (run_id, position, file_id, samples, mean, std)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			result.RunID.String(), i, fa.FileID, fa.Samples, fa.Mean, fa.Std,
		)
		if err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to insert series %s", fa.FileID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit analysis run", err)
	}
	return nil
}

// GetRun loads a stored run. Trimmed samples are not stored, so the result
// carries statistics only.
func (r *ResultRepository) GetRun(ctx context.Context, id core.RunID) (*run.Result, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, created_at, stage, center,
			   original_count, original_mean, original_median, original_std,
			   cleanup_level, threshold, threshold_owner, mean_of_stds
		FROM analysis_runs WHERE id = $1`, id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound(fmt.Sprintf("run %s", id))
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load analysis run", err)
	}

	var rows []seriesRow
	err = r.db.SelectContext(ctx, &rows, `
		SELECT position, file_id, samples, mean, std
		FROM analysis_series WHERE run_id = $1 ORDER BY position`, id.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to load analysis series", err)
	}

	result := &run.Result{
		RunID:     core.RunID(row.ID),
		CreatedAt: row.CreatedAt,
		Stage:     run.Stage(row.Stage),
		Center:    series.CenterStatistic(row.Center),
		Original: series.Summary{
			Count:  row.OriginalCount,
			Mean:   row.OriginalMean,
			Median: row.OriginalMedian,
			Std:    row.OriginalStd,
		},
		Threshold:      row.Threshold,
		ThresholdOwner: row.ThresholdOwner,
		Aggregate: series.AggregateResult{
			PerSeries:  make([]series.FileAnalysis, 0, len(rows)),
			MeanOfStds: row.MeanOfStds,
		},
	}
	if row.CleanupLevel.Valid {
		result.Cleaning = &run.Cleaning{Level: row.CleanupLevel.Float64, Center: result.Center}
	}
	for _, sr := range rows {
		result.Aggregate.PerSeries = append(result.Aggregate.PerSeries, series.FileAnalysis{
			FileID:  sr.FileID,
			Mean:    sr.Mean,
			Std:     sr.Std,
			Samples: sr.Samples,
		})
	}

	return result, nil
}
