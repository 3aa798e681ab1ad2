package ports

import (
	"context"

	"loadanalysis/domain/core"
	"loadanalysis/domain/run"
)

// ResultRepository persists analyzed runs
type ResultRepository interface {
	SaveRun(ctx context.Context, result *run.Result) error
	GetRun(ctx context.Context, id core.RunID) (*run.Result, error)
}
