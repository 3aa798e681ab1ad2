package analysis

import (
	"context"
	"fmt"

	"loadanalysis/domain/core"
	"loadanalysis/domain/series"
	"loadanalysis/internal"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// StatisticalEngine computes dispersion statistics over delta sequences.
// All standard deviations are population (not sample-corrected) so they agree
// with the cleaner's boundary math.
type StatisticalEngine struct {
	workers int
	logger  *internal.Logger
}

// NewStatisticalEngine creates an engine that analyzes up to workers series
// concurrently.
func NewStatisticalEngine(workers int, logger *internal.Logger) *StatisticalEngine {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &StatisticalEngine{workers: workers, logger: logger.With("statistics")}
}

// Summarize computes count, mean, median and population std of deltas.
// An empty sequence yields core.ErrNoData.
func (se *StatisticalEngine) Summarize(deltas []float64) (series.Summary, error) {
	if len(deltas) == 0 {
		return series.Summary{}, core.ErrNoData
	}

	mean, std := stat.PopMeanStdDev(deltas, nil)

	// stats.Median sorts a copy, deltas stay untouched
	median, err := stats.Median(deltas)
	if err != nil {
		return series.Summary{}, fmt.Errorf("median: %w", err)
	}

	return series.Summary{
		Count:  len(deltas),
		Mean:   mean,
		Median: median,
		Std:    std,
	}, nil
}

// AnalyzePooled summarizes the concatenated deltas of every series
func (se *StatisticalEngine) AnalyzePooled(list []series.Series) (series.Summary, error) {
	return se.Summarize(series.PooledDeltas(list))
}

// AnalyzeSeries computes mean and std for each series. Results keep the input
// order. A series without samples is reported with Samples == 0.
func (se *StatisticalEngine) AnalyzeSeries(ctx context.Context, list []series.Series) ([]series.FileAnalysis, error) {
	results := make([]series.FileAnalysis, len(list))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(se.workers)

	for i := range list {
		id := list[i].ID
		deltas := append([]float64(nil), list[i].Deltas...)

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = series.FileAnalysis{FileID: id}
			summary, err := se.Summarize(deltas)
			if err != nil {
				return nil
			}
			results[i].Mean = summary.Mean
			results[i].Std = summary.Std
			results[i].Samples = summary.Count
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, fa := range results {
		if fa.Samples == 0 {
			se.logger.Warn("no data in series %s", fa.FileID)
			continue
		}
		se.logger.Debug("file: %s -- samples: %d -- mean: %v -- std: %v", fa.FileID, fa.Samples, fa.Mean, fa.Std)
	}

	return results, nil
}

// MeanOfStds averages the std of every analysis that has samples
func (se *StatisticalEngine) MeanOfStds(per []series.FileAnalysis) (float64, error) {
	stds := make([]float64, 0, len(per))
	for _, fa := range per {
		if fa.Samples > 0 {
			stds = append(stds, fa.Std)
		}
	}
	if len(stds) == 0 {
		return 0, core.NewInsufficientDataError("no series with samples to average")
	}
	return stat.Mean(stds, nil), nil
}

// Aggregate runs AnalyzeSeries and reduces the per-series stds to their mean
func (se *StatisticalEngine) Aggregate(ctx context.Context, list []series.Series) (series.AggregateResult, error) {
	if len(list) == 0 {
		return series.AggregateResult{}, core.NewInsufficientDataError("no series supplied")
	}

	per, err := se.AnalyzeSeries(ctx, list)
	if err != nil {
		return series.AggregateResult{}, err
	}

	meanOfStds, err := se.MeanOfStds(per)
	if err != nil {
		return series.AggregateResult{}, err
	}

	se.logger.Info("mean of all delta standard deviations (from all file data): %v", meanOfStds)

	return series.AggregateResult{PerSeries: per, MeanOfStds: meanOfStds}, nil
}
