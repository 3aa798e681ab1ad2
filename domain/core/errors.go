package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Halting errors
	ErrMalformedInput       = errors.New("malformed input")
	ErrEmptySeriesAfterTrim = errors.New("empty series after trim")
	ErrInsufficientData     = errors.New("insufficient data for analysis")

	// Statistics errors
	ErrNoData = errors.New("no data")

	// Configuration errors
	ErrInvalidCleanupLevel = errors.New("cleanup level must be non-negative")
	ErrInvalidCenter       = errors.New("unknown center statistic")
)

// MalformedInputError reports every source whose data cannot be paired into
// timestamp/delta samples.
type MalformedInputError struct {
	Files  []string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrMalformedInput, e.Reason, strings.Join(e.Files, ", "))
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }

// EmptySeriesAfterTrimError lists every series left without samples at or
// after the threshold.
type EmptySeriesAfterTrimError struct {
	IDs       []string
	Threshold float64
}

func (e *EmptySeriesAfterTrimError) Error() string {
	return fmt.Sprintf("%v: no samples at or after threshold %v in: %s",
		ErrEmptySeriesAfterTrim, e.Threshold, strings.Join(e.IDs, ", "))
}

func (e *EmptySeriesAfterTrimError) Unwrap() error { return ErrEmptySeriesAfterTrim }

// InsufficientDataError is returned when there are no series to work on, or
// when some series carry no samples at all.
type InsufficientDataError struct {
	IDs    []string
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("%v: %s", ErrInsufficientData, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", ErrInsufficientData, e.Reason, strings.Join(e.IDs, ", "))
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// Error constructors with context
func NewMalformedInputError(reason string, files ...string) error {
	return &MalformedInputError{Files: files, Reason: reason}
}

func NewInsufficientDataError(reason string, ids ...string) error {
	return &InsufficientDataError{IDs: ids, Reason: reason}
}

// Error checking helpers
func IsHaltingError(err error) bool {
	return errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrEmptySeriesAfterTrim) ||
		errors.Is(err, ErrInsufficientData)
}

// OffendingIDs returns the series or file ids carried by a halting error, or
// nil when the error names none.
func OffendingIDs(err error) []string {
	var malformed *MalformedInputError
	if errors.As(err, &malformed) {
		return malformed.Files
	}
	var empty *EmptySeriesAfterTrimError
	if errors.As(err, &empty) {
		return empty.IDs
	}
	var insufficient *InsufficientDataError
	if errors.As(err, &insufficient) {
		return insufficient.IDs
	}
	return nil
}
