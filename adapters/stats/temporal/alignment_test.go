package temporal

import (
	"errors"
	"testing"

	"loadanalysis/domain/core"
	"loadanalysis/domain/series"
)

// ============================================================================
// TEST: DiscoverThreshold
// ============================================================================

func exampleSeries() []series.Series {
	return []series.Series{
		{ID: "a", Timestamps: []float64{1, 2, 3, 14, 15}, Deltas: []float64{2, 4, 4, 4, 5}},
		{ID: "b", Timestamps: []float64{2, 3, 14, 15}, Deltas: []float64{2, 4, 4, 5}},
		{ID: "c", Timestamps: []float64{5, 6, 14, 15}, Deltas: []float64{2, 4, 4, 5}},
	}
}

func TestDiscoverThreshold_MaxOfHeads(t *testing.T) {
	threshold, err := NewAligner(nil).DiscoverThreshold(exampleSeries())
	if err != nil {
		t.Fatalf("DiscoverThreshold failed: %v", err)
	}

	if threshold.Value != 5 {
		t.Errorf("Expected threshold 5, got %v", threshold.Value)
	}
	if threshold.OwnerID != "c" {
		t.Errorf("Expected owner c, got %s", threshold.OwnerID)
	}
}

func TestDiscoverThreshold_TieKeepsFirstOwner(t *testing.T) {
	list := []series.Series{
		{ID: "x", Timestamps: []float64{-3}, Deltas: []float64{1}},
		{ID: "y", Timestamps: []float64{7}, Deltas: []float64{1}},
		{ID: "z", Timestamps: []float64{7, 8}, Deltas: []float64{1, 1}},
	}

	threshold, err := NewAligner(nil).DiscoverThreshold(list)
	if err != nil {
		t.Fatalf("DiscoverThreshold failed: %v", err)
	}
	if threshold.Value != 7 || threshold.OwnerID != "y" {
		t.Errorf("Expected (7, y), got (%v, %s)", threshold.Value, threshold.OwnerID)
	}
}

func TestDiscoverThreshold_NegativeTimestamps(t *testing.T) {
	list := []series.Series{
		{ID: "p", Timestamps: []float64{-10, -2}, Deltas: []float64{1, 1}},
		{ID: "q", Timestamps: []float64{-5}, Deltas: []float64{1}},
	}

	threshold, err := NewAligner(nil).DiscoverThreshold(list)
	if err != nil {
		t.Fatalf("DiscoverThreshold failed: %v", err)
	}
	if threshold.Value != -5 || threshold.OwnerID != "q" {
		t.Errorf("Expected (-5, q), got (%v, %s)", threshold.Value, threshold.OwnerID)
	}
}

func TestDiscoverThreshold_SingleSeries(t *testing.T) {
	list := []series.Series{{ID: "solo", Timestamps: []float64{42, 50}, Deltas: []float64{1, 2}}}

	threshold, err := NewAligner(nil).DiscoverThreshold(list)
	if err != nil {
		t.Fatalf("DiscoverThreshold failed: %v", err)
	}
	if threshold.Value != 42 || threshold.OwnerID != "solo" {
		t.Errorf("Expected (42, solo), got (%v, %s)", threshold.Value, threshold.OwnerID)
	}
}

func TestDiscoverThreshold_InsufficientData(t *testing.T) {
	aligner := NewAligner(nil)

	_, err := aligner.DiscoverThreshold(nil)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData for no series, got %v", err)
	}

	list := []series.Series{
		{ID: "e1"},
		{ID: "ok", Timestamps: []float64{1}, Deltas: []float64{1}},
		{ID: "e2", Timestamps: []float64{}, Deltas: []float64{}},
	}
	_, err = aligner.DiscoverThreshold(list)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("Expected ErrInsufficientData for empty series, got %v", err)
	}
	ids := core.OffendingIDs(err)
	if len(ids) != 2 || ids[0] != "e1" || ids[1] != "e2" {
		t.Errorf("Expected both empty series reported, got %v", ids)
	}
}

// ============================================================================
// TEST: LowerBound / TrimToThreshold
// ============================================================================

func TestLowerBound(t *testing.T) {
	timestamps := []float64{1, 3, 3, 3, 7, 9}

	testCases := []struct {
		threshold float64
		expected  int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 1}, // leftmost of the duplicates
		{4, 4},
		{9, 5},
		{10, 6},
	}

	for _, tc := range testCases {
		if got := LowerBound(timestamps, tc.threshold); got != tc.expected {
			t.Errorf("LowerBound(%v) = %d, expected %d", tc.threshold, got, tc.expected)
		}
	}

	if got := LowerBound(nil, 5); got != 0 {
		t.Errorf("LowerBound on empty input = %d, expected 0", got)
	}
}

func TestTrimToThreshold_EndToEndExample(t *testing.T) {
	aligner := NewAligner(nil)

	threshold, trimmed, err := aligner.Align(exampleSeries())
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if threshold.Value != 5 {
		t.Fatalf("Expected threshold 5, got %v", threshold.Value)
	}

	expected := []series.Series{
		{ID: "a", Timestamps: []float64{14, 15}, Deltas: []float64{4, 5}},
		{ID: "b", Timestamps: []float64{14, 15}, Deltas: []float64{4, 5}},
		{ID: "c", Timestamps: []float64{5, 6, 14, 15}, Deltas: []float64{2, 4, 4, 5}},
	}

	if len(trimmed) != len(expected) {
		t.Fatalf("Expected %d series, got %d", len(expected), len(trimmed))
	}
	for i := range expected {
		assertSeriesEqual(t, expected[i], trimmed[i])
	}
}

func TestTrimToThreshold_Properties(t *testing.T) {
	aligner := NewAligner(nil)
	original := exampleSeries()
	const threshold = 5.0

	trimmed, err := aligner.TrimToThreshold(original, threshold)
	if err != nil {
		t.Fatalf("TrimToThreshold failed: %v", err)
	}

	for i, s := range trimmed {
		// Pairing invariant
		if len(s.Timestamps) != len(s.Deltas) {
			t.Errorf("%s: %d timestamps vs %d deltas", s.ID, len(s.Timestamps), len(s.Deltas))
		}

		// Monotonicity
		for _, ts := range s.Timestamps {
			if ts < threshold {
				t.Errorf("%s: timestamp %v below threshold", s.ID, ts)
			}
		}

		// Suffix of the original
		offset := original[i].Len() - s.Len()
		for j := range s.Timestamps {
			if s.Timestamps[j] != original[i].Timestamps[offset+j] || s.Deltas[j] != original[i].Deltas[offset+j] {
				t.Errorf("%s: sample %d is not a suffix of the original", s.ID, j)
			}
		}
	}

	// Idempotence
	again, err := aligner.TrimToThreshold(trimmed, threshold)
	if err != nil {
		t.Fatalf("re-trim failed: %v", err)
	}
	for i := range trimmed {
		assertSeriesEqual(t, trimmed[i], again[i])
	}
}

func TestTrimToThreshold_DuplicateTimestampsKeepAllPairs(t *testing.T) {
	list := []series.Series{
		{ID: "dup", Timestamps: []float64{1, 4, 4, 4, 6}, Deltas: []float64{9, 1, 2, 3, 4}},
	}

	trimmed, err := NewAligner(nil).TrimToThreshold(list, 4)
	if err != nil {
		t.Fatalf("TrimToThreshold failed: %v", err)
	}
	assertSeriesEqual(t, series.Series{ID: "dup", Timestamps: []float64{4, 4, 4, 6}, Deltas: []float64{1, 2, 3, 4}}, trimmed[0])
}

func TestTrimToThreshold_DoesNotMutateInput(t *testing.T) {
	list := exampleSeries()

	trimmed, err := NewAligner(nil).TrimToThreshold(list, 5)
	if err != nil {
		t.Fatalf("TrimToThreshold failed: %v", err)
	}
	trimmed[0].Deltas[0] = 100

	if list[0].Len() != 5 || list[0].Deltas[3] != 4 {
		t.Errorf("input series was modified: %+v", list[0])
	}
}

func TestTrimToThreshold_EmptyAfterTrimHalts(t *testing.T) {
	aligner := NewAligner(nil)
	list := []series.Series{
		{ID: "A", Timestamps: []float64{5}, Deltas: []float64{1}},
		{ID: "B", Timestamps: []float64{10}, Deltas: []float64{1}},
	}

	threshold, err := aligner.DiscoverThreshold(list)
	if err != nil {
		t.Fatalf("DiscoverThreshold failed: %v", err)
	}
	if threshold.Value != 10 {
		t.Fatalf("Expected threshold 10, got %v", threshold.Value)
	}

	trimmed, err := aligner.TrimToThreshold(list, threshold.Value)
	if trimmed != nil {
		t.Errorf("Expected no series on halt, got %v", trimmed)
	}

	var emptyErr *core.EmptySeriesAfterTrimError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("Expected EmptySeriesAfterTrimError, got %v", err)
	}
	if len(emptyErr.IDs) != 1 || emptyErr.IDs[0] != "A" {
		t.Errorf("Expected [A], got %v", emptyErr.IDs)
	}
	if emptyErr.Threshold != 10 {
		t.Errorf("Expected threshold 10 in error, got %v", emptyErr.Threshold)
	}
}

func TestTrimToThreshold_ReportsEveryEmptySeries(t *testing.T) {
	list := []series.Series{
		{ID: "A", Timestamps: []float64{1, 2}, Deltas: []float64{1, 1}},
		{ID: "B", Timestamps: []float64{20}, Deltas: []float64{1}},
		{ID: "C", Timestamps: []float64{3}, Deltas: []float64{1}},
	}

	_, err := NewAligner(nil).TrimToThreshold(list, 20)
	ids := core.OffendingIDs(err)
	if len(ids) != 2 || ids[0] != "A" || ids[1] != "C" {
		t.Errorf("Expected [A C], got %v", ids)
	}
}

func assertSeriesEqual(t *testing.T, expected, got series.Series) {
	t.Helper()
	if expected.ID != got.ID {
		t.Errorf("Expected id %s, got %s", expected.ID, got.ID)
	}
	if len(expected.Timestamps) != len(got.Timestamps) || len(expected.Deltas) != len(got.Deltas) {
		t.Fatalf("%s: expected %v/%v, got %v/%v", expected.ID, expected.Timestamps, expected.Deltas, got.Timestamps, got.Deltas)
	}
	for i := range expected.Timestamps {
		if expected.Timestamps[i] != got.Timestamps[i] || expected.Deltas[i] != got.Deltas[i] {
			t.Errorf("%s: sample %d expected (%v,%v), got (%v,%v)", expected.ID, i,
				expected.Timestamps[i], expected.Deltas[i], got.Timestamps[i], got.Deltas[i])
		}
	}
}
