package series

import (
	"fmt"
	"strings"

	"loadanalysis/domain/core"
)

// CenterStatistic selects the central value used for outlier boundaries and
// for the pooled summaries reported around cleaning.
type CenterStatistic string

const (
	CenterMedian CenterStatistic = "median"
	CenterMean   CenterStatistic = "mean"
)

// ParseCenter parses a center statistic name
func ParseCenter(s string) (CenterStatistic, error) {
	switch CenterStatistic(strings.ToLower(strings.TrimSpace(s))) {
	case "", CenterMedian:
		return CenterMedian, nil
	case CenterMean:
		return CenterMean, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrInvalidCenter, s)
	}
}

// Summary holds population statistics over a delta sequence
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// Center returns the summary's value for the given center statistic
func (s Summary) Center(c CenterStatistic) float64 {
	if c == CenterMean {
		return s.Mean
	}
	return s.Median
}

// FileAnalysis is the per-series result
type FileAnalysis struct {
	FileID  string  `json:"file_id"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Samples int     `json:"samples"`
}

// AggregateResult is the final pipeline output
type AggregateResult struct {
	PerSeries  []FileAnalysis `json:"per_series"`
	MeanOfStds float64        `json:"mean_of_stds"`
}
