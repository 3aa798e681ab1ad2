package config

import (
	"os"
	"strconv"

	"loadanalysis/domain/series"
	"loadanalysis/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Log      LogConfig
	Analysis AnalysisConfig
	Output   OutputConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// AnalysisConfig holds pipeline settings
type AnalysisConfig struct {
	CleanupEnabled bool
	CleanupLevel   float64 // standard deviations around the center
	Center         series.CenterStatistic
	Workers        int
}

// OutputConfig holds result file locations. Empty file names disable the
// corresponding output.
type OutputConfig struct {
	ResultsDir  string
	GraphsDir   string
	ResultsFile string
	PlotFile    string
	XLSXFile    string
}

// DatabaseConfig holds the optional run store connection
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds API server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}

	config := &Config{
		Log:      LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")},
		Analysis: *analysis,
		Output: OutputConfig{
			ResultsDir:  getEnvOrDefault("RESULTS_DIR", "results"),
			GraphsDir:   getEnvOrDefault("GRAPHS_DIR", "graphs"),
			ResultsFile: os.Getenv("RESULTS_FILE"),
			PlotFile:    os.Getenv("PLOT_FILE"),
			XLSXFile:    os.Getenv("XLSX_FILE"),
		},
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadAnalysisConfig() (*AnalysisConfig, error) {
	center, err := series.ParseCenter(os.Getenv("CLEANUP_CENTER"))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	cfg := &AnalysisConfig{
		Center:  center,
		Workers: getEnvIntOrDefault("WORKERS", 4),
	}

	if value := os.Getenv("CLEANUP_LEVEL"); value != "" {
		level, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("CLEANUP_LEVEL must be a number")
		}
		cfg.CleanupEnabled = true
		cfg.CleanupLevel = level
	}

	return cfg, nil
}

// Validate checks values that flags or the environment may have set
func (c *Config) Validate() error {
	if c.Analysis.CleanupEnabled && c.Analysis.CleanupLevel < 0 {
		return errors.ConfigInvalid("cleanup level must be non-negative")
	}
	if _, err := series.ParseCenter(string(c.Analysis.Center)); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if c.Analysis.Workers < 1 {
		return errors.ConfigInvalid("workers must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
