package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"loadanalysis/adapters/datafile"
	"loadanalysis/adapters/postgres"
	"loadanalysis/adapters/report"
	"loadanalysis/app"
	"loadanalysis/domain/core"
	"loadanalysis/domain/run"
	"loadanalysis/domain/series"
	"loadanalysis/internal"
	"loadanalysis/internal/analysis"
	"loadanalysis/internal/config"
	"loadanalysis/internal/migration"
	"loadanalysis/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "loadanalysis",
		Short:         "Align, clean and summarize load-test delta series",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newAnalyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type analyzeOptions struct {
	cleanupLevel float64
	center       string
	plotFile     string
	resultsFile  string
	xlsxFile     string
	logLevel     string
	workers      int
	store        bool
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze [data_dir...]",
		Short: "Run the alignment pipeline over one or more data directories",
		Long: `Read every data file under the given directories (or single files), align
all series to the latest first timestamp and report per-file delta statistics.

Configuration is read from the environment (and .env when present); flags
override it.

Example: loadanalysis analyze data/run1 data/run2 -c 2 -p load -o run.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.cleanupLevel, "cleanup-level", "c", 0, "Drop deltas further than this many standard deviations from the center")
	cmd.Flags().StringVar(&opts.center, "center", "", "Center statistic for cleaning: median|mean")
	cmd.Flags().StringVarP(&opts.plotFile, "plot", "p", "", "Plot file name (written under the graphs directory)")
	cmd.Flags().StringVarP(&opts.resultsFile, "output-to-file", "o", "", "Results file name (appended under the results directory)")
	cmd.Flags().StringVar(&opts.xlsxFile, "xlsx", "", "Workbook file name (written under the results directory)")
	cmd.Flags().StringVarP(&opts.logLevel, "logging-level", "l", "", "Log level: error|warn|info|debug|trace")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Parallel workers for per-series statistics")
	cmd.Flags().BoolVar(&opts.store, "store", false, "Store the run in the database at DATABASE_URL")

	return cmd
}

func runAnalyze(cmd *cobra.Command, dirs []string, opts analyzeOptions) error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyFlags(cmd, cfg, opts); err != nil {
		return err
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var reader ports.SeriesReader = datafile.NewDataReader(logger)
	list, err := reader.ReadSeries(ctx, dirs...)
	if err != nil {
		return reportHalt(logger, err)
	}

	engine := analysis.NewStatisticalEngine(cfg.Analysis.Workers, logger)
	pipeline, err := app.NewPipeline(app.PipelineConfig{
		Cleanup:      cfg.Analysis.CleanupEnabled,
		CleanupLevel: cfg.Analysis.CleanupLevel,
		Center:       cfg.Analysis.Center,
	}, engine, logger)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, list)
	if err != nil {
		return reportHalt(logger, err)
	}

	logSummary(logger, result)

	if err := writeOutputs(logger, cfg.Output, result); err != nil {
		return err
	}

	if opts.store {
		if err := storeRun(ctx, logger, cfg.Database.URL, result); err != nil {
			return err
		}
	}

	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, opts analyzeOptions) error {
	flags := cmd.Flags()
	if flags.Changed("cleanup-level") {
		cfg.Analysis.CleanupEnabled = true
		cfg.Analysis.CleanupLevel = opts.cleanupLevel
	}
	if flags.Changed("center") {
		center, err := series.ParseCenter(opts.center)
		if err != nil {
			return err
		}
		cfg.Analysis.Center = center
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = opts.workers
	}
	if flags.Changed("logging-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("plot") {
		cfg.Output.PlotFile = opts.plotFile
	}
	if flags.Changed("output-to-file") {
		cfg.Output.ResultsFile = opts.resultsFile
	}
	if flags.Changed("xlsx") {
		cfg.Output.XLSXFile = opts.xlsxFile
	}
	return cfg.Validate()
}

// reportHalt logs every offending id of a halting error
func reportHalt(logger *internal.Logger, err error) error {
	if !core.IsHaltingError(err) {
		return err
	}

	var stageErr *app.StageError
	if errors.As(err, &stageErr) {
		logger.Error("pipeline halted: %s", stageErr.Stage)
	}
	for _, id := range core.OffendingIDs(err) {
		switch {
		case errors.Is(err, core.ErrEmptySeriesAfterTrim):
			logger.Error("empty series after trimming for file: %s", id)
		case errors.Is(err, core.ErrMalformedInput):
			logger.Error("malformed input file: %s", id)
		default:
			logger.Error("insufficient data in file: %s", id)
		}
	}
	return err
}

func logSummary(logger *internal.Logger, result *run.Result) {
	logger.Info("timestamp threshold set at: %v by file: %s", result.Threshold, result.ThresholdOwner)
	for _, fa := range result.Aggregate.PerSeries {
		logger.Info("file: %s -- samples: %d -- mean: %v -- std: %v", fa.FileID, fa.Samples, fa.Mean, fa.Std)
	}
	logger.Info("mean of all delta standard deviations found (from all file data): %v", result.Aggregate.MeanOfStds)
}

func writeOutputs(logger *internal.Logger, out config.OutputConfig, result *run.Result) error {
	if out.ResultsFile != "" {
		path := filepath.Join(out.ResultsDir, out.ResultsFile)
		if err := report.NewTextReport(result).WriteFile(path); err != nil {
			return err
		}
		logger.Info("results written to %s", path)
	}

	if out.XLSXFile != "" {
		path := filepath.Join(out.ResultsDir, out.XLSXFile)
		if err := report.ExportXLSX(result, path); err != nil {
			return err
		}
		logger.Info("workbook written to %s", path)
	}

	if out.PlotFile != "" {
		written, err := report.Plot(result, "Load Analysis", filepath.Join(out.GraphsDir, out.PlotFile))
		if err != nil {
			return err
		}
		logger.Info("plot written to %s", written)
	}

	return nil
}

func storeRun(ctx context.Context, logger *internal.Logger, databaseURL string, result *run.Result) error {
	if databaseURL == "" {
		return fmt.Errorf("--store requires DATABASE_URL")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return err
	}

	if err := postgres.NewResultRepository(db).SaveRun(ctx, result); err != nil {
		return err
	}
	logger.Info("run %s stored", result.RunID)
	return nil
}
