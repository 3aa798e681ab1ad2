package cleaning

import (
	"fmt"

	"loadanalysis/domain/core"
	"loadanalysis/domain/series"
	"loadanalysis/internal"
	"loadanalysis/internal/analysis"
)

// Boundary is the inclusive band of accepted deltas
type Boundary struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether delta lies inside the band
func (b Boundary) Contains(delta float64) bool {
	return delta >= b.Lower && delta <= b.Upper
}

// Outcome is the result of one cleaning pass
type Outcome struct {
	Series   []series.Series
	Boundary Boundary
	// Original is the pooled summary the boundary was derived from
	Original series.Summary
	// Dropped lists series that lost every sample
	Dropped []string
}

// Cleaner removes outlier samples using a pooled boundary: center and std are
// computed over the deltas of all series together, so the band does not
// depend on the size of any single file.
type Cleaner struct {
	level  float64
	center series.CenterStatistic
	engine *analysis.StatisticalEngine
	logger *internal.Logger
}

// NewCleaner creates a cleaner keeping deltas within level standard
// deviations of the chosen center.
func NewCleaner(level float64, center series.CenterStatistic, engine *analysis.StatisticalEngine, logger *internal.Logger) (*Cleaner, error) {
	if level < 0 {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidCleanupLevel, level)
	}
	if _, err := series.ParseCenter(string(center)); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &Cleaner{level: level, center: center, engine: engine, logger: logger.With("cleaning")}, nil
}

// Level returns the number of standard deviations
func (c *Cleaner) Level() float64 { return c.level }

// Center returns the center statistic
func (c *Cleaner) Center() series.CenterStatistic { return c.center }

// BoundaryFor derives the band from a pooled summary
func (c *Cleaner) BoundaryFor(summary series.Summary) Boundary {
	center := summary.Center(c.center)
	return Boundary{
		Lower: center - summary.Std*c.level,
		Upper: center + summary.Std*c.level,
	}
}

// Clean keeps only the (timestamp, delta) pairs whose delta lies inside the
// boundary. Series left with no samples are dropped from the output.
func (c *Cleaner) Clean(list []series.Series) (Outcome, error) {
	if len(list) == 0 {
		return Outcome{}, core.NewInsufficientDataError("no series supplied")
	}
	if err := series.ValidateAll(list); err != nil {
		return Outcome{}, err
	}

	c.logger.Info("cleaning up outliers in the data that are not within +/- (%v) standard deviation(s) of the %s", c.level, c.center)

	original, err := c.engine.AnalyzePooled(list)
	if err != nil {
		return Outcome{}, core.NewInsufficientDataError("no samples to clean", series.IDs(list)...)
	}

	boundary := c.BoundaryFor(original)
	c.logger.Debug("cleaning boundary [%v, %v]", boundary.Lower, boundary.Upper)

	outcome := Outcome{Boundary: boundary, Original: original}
	for _, s := range list {
		clean := series.Series{ID: s.ID}
		for i, delta := range s.Deltas {
			if boundary.Contains(delta) {
				clean.Timestamps = append(clean.Timestamps, s.Timestamps[i])
				clean.Deltas = append(clean.Deltas, delta)
			}
		}

		if clean.IsEmpty() {
			outcome.Dropped = append(outcome.Dropped, s.ID)
			c.logger.Debug("cleanup-file: %s -- every sample removed", s.ID)
			continue
		}

		c.logger.Debug("cleanup-file: %s -- total timestamps: %d -- total deltas: %d",
			clean.ID, len(clean.Timestamps), len(clean.Deltas))
		outcome.Series = append(outcome.Series, clean)
	}

	if len(outcome.Dropped) > 0 {
		c.logger.Warn("cleaning removed every sample from %d file(s): %v", len(outcome.Dropped), outcome.Dropped)
	}

	return outcome, nil
}
