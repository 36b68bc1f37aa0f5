// Package config loads and validates the pipeline configuration from a YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix is the prefix for environment variable overrides,
// e.g. SHOCKCAST_ANALYSIS_HORIZON.
const envPrefix = "SHOCKCAST"

// Config represents the complete application configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Report   ReportConfig   `yaml:"report" envconfig:"REPORT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DataConfig describes the incident input source.
type DataConfig struct {
	// InputPath points at the incident table (CSV or XLSX).
	InputPath string `yaml:"input_path" envconfig:"INPUT_PATH"`
	// Sheet names the worksheet when InputPath is an XLSX file.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`
}

// AnalysisConfig holds the modeling parameters for a single run.
type AnalysisConfig struct {
	// Cutoff is the first month of the withheld window, YYYY-MM-DD.
	// Everything strictly before it is the historical fitting window.
	Cutoff string `yaml:"cutoff" envconfig:"CUTOFF" validate:"required,datetime=2006-01-02"`
	// Horizon is the number of months to forecast past the cutoff.
	Horizon int `yaml:"horizon" envconfig:"HORIZON" validate:"min=1,max=60"`
	// Confidence is the prediction-interval confidence level.
	Confidence float64 `yaml:"confidence" envconfig:"CONFIDENCE" validate:"gt=0.5,lt=1"`
	// MaxLag bounds the ACF/PACF diagnostics.
	MaxLag int `yaml:"max_lag" envconfig:"MAX_LAG" validate:"min=1"`
	// LjungBoxLags are the lags at which residuals are portmanteau-tested.
	LjungBoxLags []int `yaml:"ljung_box_lags" envconfig:"LJUNG_BOX_LAGS" validate:"min=1,dive,min=1"`

	Search SearchConfig `yaml:"search" envconfig:"SEARCH"`
}

// SearchConfig bounds the stepwise seasonal order search.
type SearchConfig struct {
	MaxP  int `yaml:"max_p" envconfig:"MAX_P" validate:"min=0,max=5"`
	MaxD  int `yaml:"max_d" envconfig:"MAX_D" validate:"min=0,max=2"`
	MaxQ  int `yaml:"max_q" envconfig:"MAX_Q" validate:"min=0,max=5"`
	MaxSP int `yaml:"max_sp" envconfig:"MAX_SP" validate:"min=0,max=2"`
	MaxSD int `yaml:"max_sd" envconfig:"MAX_SD" validate:"min=0,max=1"`
	MaxSQ int `yaml:"max_sq" envconfig:"MAX_SQ" validate:"min=0,max=2"`
	// MaxSteps caps the number of candidate fits across the whole search.
	MaxSteps int `yaml:"max_steps" envconfig:"MAX_STEPS" validate:"min=1"`
	// Timeout is the wall-clock budget for the search.
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"min=1s"`
	// MaxConcurrency bounds parallel candidate evaluation.
	MaxConcurrency int `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"min=1"`
}

// ReportConfig controls where run outputs are written.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
}

// Default returns the configuration defaults. The analysis defaults match the
// documented baseline run: a 12-month withheld window forecast at 95%.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/shockcast.log",
		},
		Analysis: AnalysisConfig{
			Cutoff:       "2020-01-01",
			Horizon:      12,
			Confidence:   0.95,
			MaxLag:       24,
			LjungBoxLags: []int{5, 10, 15, 20, 30},
			Search: SearchConfig{
				MaxP:           3,
				MaxD:           2,
				MaxQ:           3,
				MaxSP:          2,
				MaxSD:          1,
				MaxSQ:          2,
				MaxSteps:       60,
				Timeout:        2 * time.Minute,
				MaxConcurrency: 4,
			},
		},
		Report: ReportConfig{
			OutputDir: "reports",
		},
	}
}

// Load reads configuration from the YAML file at path (if it exists) over the
// defaults, then applies environment overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// CutoffDate parses the configured cutoff into a calendar date.
func (c *AnalysisConfig) CutoffDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.Cutoff)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cutoff date: %w", err)
	}
	return t, nil
}
