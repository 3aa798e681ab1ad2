package app

import (
	"context"
	"fmt"
	"time"

	"loadanalysis/adapters/stats/cleaning"
	"loadanalysis/adapters/stats/temporal"
	"loadanalysis/domain/core"
	"loadanalysis/domain/run"
	"loadanalysis/domain/series"
	"loadanalysis/internal"
	"loadanalysis/internal/analysis"
)

// PipelineConfig is the explicit configuration of one pipeline
type PipelineConfig struct {
	Cleanup      bool
	CleanupLevel float64
	Center       series.CenterStatistic
}

// StageError reports the stage a halted run reached
type StageError struct {
	Stage run.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline halted (%s): %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline runs Cleaner (optional) → Threshold Discovery → Trimmer →
// Statistics Engine over fully materialized series.
type Pipeline struct {
	config  PipelineConfig
	engine  *analysis.StatisticalEngine
	aligner *temporal.Aligner
	cleaner *cleaning.Cleaner
	logger  *internal.Logger
	now     func() time.Time
}

// NewPipeline validates config and wires the stages
func NewPipeline(config PipelineConfig, engine *analysis.StatisticalEngine, logger *internal.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = internal.NopLogger()
	}
	if engine == nil {
		engine = analysis.NewStatisticalEngine(1, logger)
	}
	center, err := series.ParseCenter(string(config.Center))
	if err != nil {
		return nil, err
	}
	config.Center = center

	p := &Pipeline{
		config:  config,
		engine:  engine,
		aligner: temporal.NewAligner(logger),
		logger:  logger.With("pipeline"),
		now:     time.Now,
	}

	if config.Cleanup {
		p.cleaner, err = cleaning.NewCleaner(config.CleanupLevel, center, engine, logger)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() PipelineConfig {
	return p.config
}

// Run executes the pipeline. On a halting error the returned error is a
// *StageError and no result is produced.
func (p *Pipeline) Run(ctx context.Context, list []series.Series) (*run.Result, error) {
	result := &run.Result{
		RunID:     core.NewRunID(),
		CreatedAt: p.now().UTC(),
		Stage:     run.StageParsed,
		Center:    p.config.Center,
	}

	if len(list) == 0 {
		return nil, p.halt(result, core.NewInsufficientDataError("no series supplied"))
	}
	if err := series.ValidateAll(list); err != nil {
		return nil, p.halt(result, err)
	}
	p.logDebugSeries("original", list)

	original, err := p.engine.AnalyzePooled(list)
	if err != nil {
		return nil, p.halt(result, core.NewInsufficientDataError("no samples in any series", series.IDs(list)...))
	}
	result.Original = original
	p.logger.Info("analysis - (original) data: %s = %v, std = %v", p.config.Center, original.Center(p.config.Center), original.Std)

	if p.cleaner != nil {
		outcome, err := p.cleaner.Clean(list)
		if err != nil {
			return nil, p.halt(result, err)
		}
		cleaningReport := &run.Cleaning{
			Level:   p.cleaner.Level(),
			Center:  p.cleaner.Center(),
			Lower:   outcome.Boundary.Lower,
			Upper:   outcome.Boundary.Upper,
			Dropped: outcome.Dropped,
		}
		if clean, err := p.engine.AnalyzePooled(outcome.Series); err == nil {
			cleaningReport.Clean = &clean
			p.logger.Info("analysis - (clean) data: %s = %v, std = %v", p.config.Center, clean.Center(p.config.Center), clean.Std)
		} else {
			p.logger.Warn("analysis - (clean) data: no data left after cleaning")
		}
		result.Cleaning = cleaningReport
		list = outcome.Series
		if err := p.advance(result, run.StageCleaned); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	threshold, err := p.aligner.DiscoverThreshold(list)
	if err != nil {
		return nil, p.halt(result, err)
	}
	result.Threshold = threshold.Value
	result.ThresholdOwner = threshold.OwnerID
	if err := p.advance(result, run.StageThresholdDiscovered); err != nil {
		return nil, err
	}

	trimmed, err := p.aligner.TrimToThreshold(list, threshold.Value)
	if err != nil {
		return nil, p.halt(result, err)
	}
	result.Trimmed = trimmed
	p.logDebugSeries("trimmed", trimmed)
	if err := p.advance(result, run.StageTrimmed); err != nil {
		return nil, err
	}

	aggregate, err := p.engine.Aggregate(ctx, trimmed)
	if err != nil {
		return nil, p.halt(result, err)
	}
	result.Aggregate = aggregate
	if err := p.advance(result, run.StageAnalyzed); err != nil {
		return nil, err
	}

	return result, nil
}

func (p *Pipeline) advance(result *run.Result, next run.Stage) error {
	if !result.Stage.CanTransition(next) {
		return fmt.Errorf("invalid stage transition %s -> %s", result.Stage, next)
	}
	p.logger.Trace("stage %s -> %s", result.Stage, next)
	result.Stage = next
	return nil
}

func (p *Pipeline) halt(result *run.Result, err error) error {
	stage, ok := run.HaltStage(err)
	if !ok {
		return err
	}
	p.logger.Error("pipeline halted at %s after %s: %v", stage, result.Stage, err)
	return &StageError{Stage: stage, Err: err}
}

func (p *Pipeline) logDebugSeries(title string, list []series.Series) {
	if !p.logger.DebugEnabled() {
		return
	}
	p.logger.Debug("%s data:", title)
	for _, s := range list {
		p.logger.Debug("file: %s -- total timestamps: %d -- total deltas: %d", s.ID, len(s.Timestamps), len(s.Deltas))
	}
}
