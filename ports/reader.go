package ports

import (
	"context"

	"loadanalysis/domain/series"
)

// SeriesReader supplies fully parsed, paired series. Implementations must flag
// files whose timestamp/delta pairing is suspect as core.MalformedInputError.
type SeriesReader interface {
	ReadSeries(ctx context.Context, paths ...string) ([]series.Series, error)
}
