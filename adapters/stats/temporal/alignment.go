package temporal

import (
	"sort"

	"loadanalysis/domain/core"
	"loadanalysis/domain/series"
	"loadanalysis/internal"
)

// ============================================================================
// TEMPORAL ALIGNMENT LAYER
// ============================================================================
// Independently sampled series start at different points in time. Before
// their dispersion can be compared, every series is cut so that it starts at
// the latest first timestamp found across all of them.
//
// Every series must be sorted ascending by timestamp.
// ============================================================================

// Threshold is the common alignment point and the series that set it
type Threshold struct {
	Value   float64 `json:"value"`
	OwnerID string  `json:"owner_id"`
}

// Aligner discovers thresholds and trims series to them
type Aligner struct {
	logger *internal.Logger
}

// NewAligner creates an aligner; a nil logger discards output
func NewAligner(logger *internal.Logger) *Aligner {
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &Aligner{logger: logger.With("temporal")}
}

// ============================================================================
// FUNCTION 1: DiscoverThreshold
// ============================================================================

// DiscoverThreshold returns the maximum head timestamp across all series and
// the first series (in input order) holding it.
func (a *Aligner) DiscoverThreshold(list []series.Series) (Threshold, error) {
	if len(list) == 0 {
		return Threshold{}, core.NewInsufficientDataError("no series supplied")
	}

	var empty []string
	for _, s := range list {
		if s.IsEmpty() {
			empty = append(empty, s.ID)
		}
	}
	if len(empty) > 0 {
		return Threshold{}, core.NewInsufficientDataError("series has no samples", empty...)
	}

	a.logger.Info("computing timestamp threshold amongst %d series", len(list))

	threshold := Threshold{Value: list[0].Timestamps[0], OwnerID: list[0].ID}
	for _, s := range list[1:] {
		head := s.Timestamps[0]
		a.logger.Debug("viewing head timestamp %v of %s", head, s.ID)
		if head > threshold.Value {
			threshold = Threshold{Value: head, OwnerID: s.ID}
		}
		a.logger.Trace("current biggest timestamp: %v", threshold.Value)
	}

	a.logger.Info("timestamp threshold set at %v by file %s", threshold.Value, threshold.OwnerID)
	return threshold, nil
}

// ============================================================================
// FUNCTION 2: TrimToThreshold
// ============================================================================

// LowerBound returns the leftmost index whose timestamp is >= threshold, or
// len(timestamps) when there is none.
func LowerBound(timestamps []float64, threshold float64) int {
	return sort.Search(len(timestamps), func(i int) bool {
		return timestamps[i] >= threshold
	})
}

// TrimToThreshold cuts every series at LowerBound(threshold), applying the
// same index to timestamps and deltas. If any series ends up empty, every
// such id is reported in one EmptySeriesAfterTrimError and nothing is
// returned.
func (a *Aligner) TrimToThreshold(list []series.Series, threshold float64) ([]series.Series, error) {
	trimmed := make([]series.Series, 0, len(list))
	var empty []string

	for _, s := range list {
		idx := LowerBound(s.Timestamps, threshold)
		cut := s.Slice(idx)
		if cut.IsEmpty() {
			empty = append(empty, s.ID)
			continue
		}
		a.logger.Debug("file: %s -- dropped %d of %d samples", s.ID, idx, s.Len())
		trimmed = append(trimmed, cut)
	}

	if len(empty) > 0 {
		for _, id := range empty {
			a.logger.Error("trimming by threshold %v left no data in file: %s", threshold, id)
		}
		a.logger.Error("revise those files, or exclude them to continue analyzing the data")
		return nil, &core.EmptySeriesAfterTrimError{IDs: empty, Threshold: threshold}
	}

	return trimmed, nil
}

// Align discovers the threshold and trims every series to it
func (a *Aligner) Align(list []series.Series) (Threshold, []series.Series, error) {
	threshold, err := a.DiscoverThreshold(list)
	if err != nil {
		return Threshold{}, nil, err
	}

	trimmed, err := a.TrimToThreshold(list, threshold.Value)
	if err != nil {
		return threshold, nil, err
	}

	return threshold, trimmed, nil
}
