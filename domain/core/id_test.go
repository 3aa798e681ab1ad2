package core

import (
	"errors"
	"testing"
)

// TestNewRunIDUniqueness tests that NewRunID generates unique identifiers
func TestNewRunIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[RunID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewRunID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

func TestParseRunID(t *testing.T) {
	id := NewRunID()
	parsed, err := ParseRunID("  " + id.String() + " ")
	if err != nil {
		t.Fatalf("ParseRunID failed: %v", err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	if _, err := ParseRunID(""); err == nil {
		t.Error("Expected error for empty run ID")
	}
	if _, err := ParseRunID("not-a-uuid"); err == nil {
		t.Error("Expected error for malformed run ID")
	}
}

func TestHaltingErrorsUnwrap(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		sentinel error
		ids      []string
	}{
		{"malformed", NewMalformedInputError("extra header lines", "a.dat", "b.dat"), ErrMalformedInput, []string{"a.dat", "b.dat"}},
		{"empty after trim", &EmptySeriesAfterTrimError{IDs: []string{"A"}, Threshold: 10}, ErrEmptySeriesAfterTrim, []string{"A"}},
		{"insufficient", NewInsufficientDataError("no series supplied"), ErrInsufficientData, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.sentinel) {
				t.Errorf("Expected %v to wrap %v", tc.err, tc.sentinel)
			}
			if !IsHaltingError(tc.err) {
				t.Errorf("Expected %v to be a halting error", tc.err)
			}
			got := OffendingIDs(tc.err)
			if len(got) != len(tc.ids) {
				t.Fatalf("Expected ids %v, got %v", tc.ids, got)
			}
			for i := range got {
				if got[i] != tc.ids[i] {
					t.Errorf("Expected ids %v, got %v", tc.ids, got)
				}
			}
		})
	}

	if IsHaltingError(ErrNoData) {
		t.Error("ErrNoData must not halt the pipeline")
	}
}
