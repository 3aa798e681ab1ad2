package series

import (
	"fmt"

	"loadanalysis/domain/core"
)

// Series is one file's parsed, paired (timestamp, delta) data. Index i of
// Timestamps and Deltas refers to the same sample.
//
// Timestamps must be non-decreasing. This is a caller contract and is not
// validated; trimming unsorted input gives undefined results.
type Series struct {
	ID         string    `json:"id"`
	Timestamps []float64 `json:"timestamps"`
	Deltas     []float64 `json:"deltas"`
}

// New builds a Series, rejecting sequences of different length
func New(id string, timestamps, deltas []float64) (Series, error) {
	s := Series{ID: id, Timestamps: timestamps, Deltas: deltas}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

// Validate checks the pairing invariant
func (s Series) Validate() error {
	if len(s.Timestamps) != len(s.Deltas) {
		return core.NewMalformedInputError(
			fmt.Sprintf("%d timestamps paired with %d deltas", len(s.Timestamps), len(s.Deltas)),
			s.ID,
		)
	}
	return nil
}

// Len returns the number of samples
func (s Series) Len() int {
	return len(s.Timestamps)
}

// IsEmpty reports whether the series has no samples
func (s Series) IsEmpty() bool {
	return len(s.Timestamps) == 0
}

// Head returns the first (smallest) timestamp
func (s Series) Head() (float64, error) {
	if s.IsEmpty() {
		return 0, core.NewInsufficientDataError("series has no samples", s.ID)
	}
	return s.Timestamps[0], nil
}

// Slice returns an independent copy of samples [from:]
func (s Series) Slice(from int) Series {
	if from > s.Len() {
		from = s.Len()
	}
	return Series{
		ID:         s.ID,
		Timestamps: append([]float64(nil), s.Timestamps[from:]...),
		Deltas:     append([]float64(nil), s.Deltas[from:]...),
	}
}

// Clone returns a copy that shares no backing arrays with s
func (s Series) Clone() Series {
	return s.Slice(0)
}

// ValidateAll checks the pairing invariant of every series and reports all
// offenders at once.
func ValidateAll(list []Series) error {
	var bad []string
	for _, s := range list {
		if s.Validate() != nil {
			bad = append(bad, s.ID)
		}
	}
	if len(bad) > 0 {
		return core.NewMalformedInputError("timestamp and delta counts differ", bad...)
	}
	return nil
}

// IDs returns the series ids in order
func IDs(list []Series) []string {
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}

// Flatten concatenates every series' timestamps and deltas in series order
func Flatten(list []Series) (timestamps, deltas []float64) {
	total := 0
	for _, s := range list {
		total += s.Len()
	}
	timestamps = make([]float64, 0, total)
	deltas = make([]float64, 0, total)
	for _, s := range list {
		timestamps = append(timestamps, s.Timestamps...)
		deltas = append(deltas, s.Deltas...)
	}
	return timestamps, deltas
}

// PooledDeltas concatenates the deltas of every series in series order
func PooledDeltas(list []Series) []float64 {
	_, deltas := Flatten(list)
	return deltas
}
