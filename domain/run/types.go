package run

import (
	"errors"
	"time"

	"loadanalysis/domain/core"
	"loadanalysis/domain/series"
)

// Stage is a pipeline state
type Stage string

const (
	StageParsed              Stage = "parsed"
	StageCleaned             Stage = "cleaned"
	StageThresholdDiscovered Stage = "threshold_discovered"
	StageTrimmed             Stage = "trimmed"
	StageAnalyzed            Stage = "analyzed"

	// Terminal failures
	StageHaltedEmptySeries      Stage = "halted_empty_series"
	StageHaltedParseError       Stage = "halted_parse_error"
	StageHaltedInsufficientData Stage = "halted_insufficient_data"
)

// IsTerminal reports whether no further transition is possible
func (s Stage) IsTerminal() bool {
	switch s {
	case StageAnalyzed, StageHaltedEmptySeries, StageHaltedParseError, StageHaltedInsufficientData:
		return true
	}
	return false
}

// CanTransition reports whether the pipeline may move from s to next
func (s Stage) CanTransition(next Stage) bool {
	switch next {
	case StageHaltedEmptySeries, StageHaltedParseError, StageHaltedInsufficientData:
		return !s.IsTerminal()
	}
	switch s {
	case StageParsed:
		return next == StageCleaned || next == StageThresholdDiscovered
	case StageCleaned:
		return next == StageThresholdDiscovered
	case StageThresholdDiscovered:
		return next == StageTrimmed
	case StageTrimmed:
		return next == StageAnalyzed
	}
	return false
}

// HaltStage maps a halting error to its terminal stage
func HaltStage(err error) (Stage, bool) {
	switch {
	case errors.Is(err, core.ErrEmptySeriesAfterTrim):
		return StageHaltedEmptySeries, true
	case errors.Is(err, core.ErrMalformedInput):
		return StageHaltedParseError, true
	case errors.Is(err, core.ErrInsufficientData):
		return StageHaltedInsufficientData, true
	}
	return "", false
}

// Cleaning records the outlier pass
type Cleaning struct {
	Level   float64                `json:"level"`
	Center  series.CenterStatistic `json:"center"`
	Lower   float64                `json:"lower"`
	Upper   float64                `json:"upper"`
	Dropped []string               `json:"dropped,omitempty"`
	// Clean is nil when cleaning removed every sample
	Clean *series.Summary `json:"clean,omitempty"`
}

// Result is everything one pipeline execution produced
type Result struct {
	RunID          core.RunID             `json:"run_id"`
	CreatedAt      time.Time              `json:"created_at"`
	Stage          Stage                  `json:"stage"`
	Center         series.CenterStatistic `json:"center"`
	Original       series.Summary         `json:"original"`
	Cleaning       *Cleaning              `json:"cleaning,omitempty"`
	Threshold      float64                `json:"threshold"`
	ThresholdOwner string                 `json:"threshold_owner"`
	Aggregate      series.AggregateResult `json:"aggregate"`

	// Trimmed holds the surviving series in emission order
	Trimmed []series.Series `json:"-"`
}

// Points returns the flattened trimmed data used for plotting
func (r *Result) Points() (timestamps, deltas []float64) {
	return series.Flatten(r.Trimmed)
}
