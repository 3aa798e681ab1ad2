package app

import (
	"context"
	"errors"
	"math"
	"testing"

	"loadanalysis/domain/core"
	"loadanalysis/domain/run"
	"loadanalysis/domain/series"
	"loadanalysis/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T, config PipelineConfig) *Pipeline {
	t.Helper()
	p, err := NewPipeline(config, analysis.NewStatisticalEngine(2, nil), nil)
	require.NoError(t, err)
	return p
}

func exampleSeries() []series.Series {
	return []series.Series{
		{ID: "a", Timestamps: []float64{1, 2, 3, 14, 15}, Deltas: []float64{2, 4, 4, 4, 5}},
		{ID: "b", Timestamps: []float64{2, 3, 14, 15}, Deltas: []float64{2, 4, 4, 5}},
		{ID: "c", Timestamps: []float64{5, 6, 14, 15}, Deltas: []float64{2, 4, 4, 5}},
	}
}

func TestPipeline_EndToEndExample(t *testing.T) {
	p := newPipeline(t, PipelineConfig{})

	result, err := p.Run(context.Background(), exampleSeries())
	require.NoError(t, err)

	assert.Equal(t, run.StageAnalyzed, result.Stage)
	assert.False(t, result.RunID.IsEmpty())
	assert.Equal(t, 5.0, result.Threshold)
	assert.Equal(t, "c", result.ThresholdOwner)
	assert.Nil(t, result.Cleaning)
	assert.Equal(t, 13, result.Original.Count)

	require.Len(t, result.Trimmed, 3)
	assert.Equal(t, []float64{14, 15}, result.Trimmed[0].Timestamps)
	assert.Equal(t, []float64{4, 5}, result.Trimmed[1].Deltas)
	assert.Equal(t, []float64{5, 6, 14, 15}, result.Trimmed[2].Timestamps)

	per := result.Aggregate.PerSeries
	require.Len(t, per, 3)
	assert.InDelta(t, 0.5, per[0].Std, 1e-12)
	assert.InDelta(t, 0.5, per[1].Std, 1e-12)
	assert.InDelta(t, math.Sqrt(1.1875), per[2].Std, 1e-12)
	assert.InDelta(t, (1+math.Sqrt(1.1875))/3, result.Aggregate.MeanOfStds, 1e-12)

	ts, ds := result.Points()
	assert.Equal(t, []float64{14, 15, 14, 15, 5, 6, 14, 15}, ts)
	assert.Equal(t, []float64{4, 5, 4, 5, 2, 4, 4, 5}, ds)
}

func TestPipeline_EmptyAfterTrimHalts(t *testing.T) {
	p := newPipeline(t, PipelineConfig{})
	list := []series.Series{
		{ID: "A", Timestamps: []float64{5}, Deltas: []float64{1}},
		{ID: "B", Timestamps: []float64{10}, Deltas: []float64{1}},
	}

	result, err := p.Run(context.Background(), list)
	assert.Nil(t, result)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, run.StageHaltedEmptySeries, stageErr.Stage)
	assert.True(t, errors.Is(err, core.ErrEmptySeriesAfterTrim))
	assert.Equal(t, []string{"A"}, core.OffendingIDs(err))
}

func TestPipeline_SingleSeriesTrivialPath(t *testing.T) {
	p := newPipeline(t, PipelineConfig{})
	only := series.Series{ID: "solo", Timestamps: []float64{3, 4, 8}, Deltas: []float64{1, 2, 6}}

	result, err := p.Run(context.Background(), []series.Series{only})
	require.NoError(t, err)

	assert.Equal(t, 3.0, result.Threshold)
	assert.Equal(t, "solo", result.ThresholdOwner)
	require.Len(t, result.Trimmed, 1)
	assert.Equal(t, only, result.Trimmed[0])
	assert.Equal(t, result.Aggregate.PerSeries[0].Std, result.Aggregate.MeanOfStds)
}

func TestPipeline_CleaningBeforeAlignment(t *testing.T) {
	p := newPipeline(t, PipelineConfig{Cleanup: true, CleanupLevel: 1, Center: series.CenterMedian})
	list := []series.Series{
		{ID: "s1", Timestamps: []float64{1, 2, 3, 4}, Deltas: []float64{10, 10, 10, 100}},
		{ID: "s2", Timestamps: []float64{1, 2}, Deltas: []float64{10, 11}},
		{ID: "s3", Timestamps: []float64{5}, Deltas: []float64{500}},
	}

	result, err := p.Run(context.Background(), list)
	require.NoError(t, err)

	require.NotNil(t, result.Cleaning)
	assert.Equal(t, []string{"s3"}, result.Cleaning.Dropped)
	require.NotNil(t, result.Cleaning.Clean)
	assert.Equal(t, 6, result.Cleaning.Clean.Count)
	assert.Equal(t, result.Original.Median-result.Original.Std, result.Cleaning.Lower)

	// s3 was dropped by cleaning, so it no longer sets the threshold
	assert.Equal(t, 1.0, result.Threshold)
	assert.Equal(t, "s1", result.ThresholdOwner)
	assert.Equal(t, []string{"s1", "s2"}, series.IDs(result.Trimmed))
}

func TestPipeline_CleaningRemovesEverything(t *testing.T) {
	p := newPipeline(t, PipelineConfig{Cleanup: true, CleanupLevel: 0, Center: series.CenterMean})
	list := []series.Series{
		{ID: "a", Timestamps: []float64{1}, Deltas: []float64{0}},
		{ID: "b", Timestamps: []float64{1}, Deltas: []float64{10}},
	}

	_, err := p.Run(context.Background(), list)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, run.StageHaltedInsufficientData, stageErr.Stage)
}

func TestPipeline_MalformedInputHalts(t *testing.T) {
	p := newPipeline(t, PipelineConfig{})
	list := []series.Series{
		{ID: "ok", Timestamps: []float64{1}, Deltas: []float64{1}},
		{ID: "broken", Timestamps: []float64{1, 2}, Deltas: []float64{1}},
	}

	_, err := p.Run(context.Background(), list)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, run.StageHaltedParseError, stageErr.Stage)
	assert.Equal(t, []string{"broken"}, core.OffendingIDs(err))
}

func TestPipeline_NoSeries(t *testing.T) {
	p := newPipeline(t, PipelineConfig{})

	_, err := p.Run(context.Background(), nil)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))
}

func TestPipeline_EmptySeriesReachesThresholdDiscovery(t *testing.T) {
	p := newPipeline(t, PipelineConfig{})
	list := []series.Series{
		{ID: "ok", Timestamps: []float64{1}, Deltas: []float64{1}},
		{ID: "hollow"},
	}

	_, err := p.Run(context.Background(), list)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))
	assert.Equal(t, []string{"hollow"}, core.OffendingIDs(err))
}

func TestNewPipeline_InvalidConfig(t *testing.T) {
	_, err := NewPipeline(PipelineConfig{Cleanup: true, CleanupLevel: -1}, nil, nil)
	assert.True(t, errors.Is(err, core.ErrInvalidCleanupLevel))

	_, err = NewPipeline(PipelineConfig{Center: "mode"}, nil, nil)
	assert.True(t, errors.Is(err, core.ErrInvalidCenter))

	p, err := NewPipeline(PipelineConfig{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, series.CenterMedian, p.Config().Center)
}
