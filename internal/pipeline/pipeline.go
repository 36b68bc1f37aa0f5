// Package pipeline orchestrates a full forecasting run: clean, impute,
// aggregate, diagnose, select, forecast, validate, compare. Stages run
// strictly in that order; each consumes the previous stage's output and the
// assembled Result is never mutated after Run returns.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shockcast/internal/config"
	"shockcast/internal/errors"
	"shockcast/internal/forecast"
	"shockcast/internal/incident"
	"shockcast/internal/infrastructure"
	"shockcast/internal/stats"
	"shockcast/internal/timeseries"
)

// Diagnostics holds the pre-model stationarity findings on the historical
// series. Informational only: nothing here gates the run.
type Diagnostics struct {
	ADF  *stats.ADFResult         `json:"adf,omitempty"`
	ACF  *stats.CorrelogramResult `json:"acf,omitempty"`
	PACF *stats.CorrelogramResult `json:"pacf,omitempty"`
}

// Result is the complete output of one run. Every field is populated by the
// time Run returns without error.
type Result struct {
	RunID       string                   `json:"run_id"`
	Cutoff      time.Time                `json:"cutoff"`
	Cleaned     []incident.CleanedRecord `json:"-"`
	Imputed     []incident.CleanedRecord `json:"-"`
	Imputation  *incident.Report         `json:"imputation"`
	Historical  *timeseries.Series       `json:"historical"`
	Actual      *timeseries.Series       `json:"actual"`
	Diagnostics Diagnostics              `json:"diagnostics"`
	Search      *forecast.SearchReport   `json:"search"`
	Forecast    *forecast.Result         `json:"forecast"`
	Comparison  *forecast.Comparison     `json:"comparison"`
	Warnings    []string                 `json:"warnings,omitempty"`
	Duration    time.Duration            `json:"duration"`
}

// Pipeline wires the run stages together under one configuration.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	cleaner  *incident.Cleaner
	imputer  incident.Strategy
	selector *forecast.Selector
}

// New creates a Pipeline with the default mode-based imputation strategy.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:      cfg,
		logger:   logger.With("component", "pipeline"),
		cleaner:  incident.NewCleaner(logger),
		imputer:  incident.NewModeStrategy(logger),
		selector: forecast.NewSelector(cfg.Analysis.Search, logger),
	}
}

// WithImputer swaps the imputation strategy. Used by callers that need a
// different missing-data policy; the default is mode substitution.
func (p *Pipeline) WithImputer(s incident.Strategy) *Pipeline {
	p.imputer = s
	return p
}

// Run executes the full pipeline over the raw records. Fatal conditions
// (parse failures, empty partitions, no converging model) abort with a
// coded error; diagnostic findings accumulate as warnings on the Result.
func (p *Pipeline) Run(ctx context.Context, records []incident.IncidentRecord) (*Result, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	start := time.Now()

	cutoff, err := p.cfg.Analysis.CutoffDate()
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidationFailed, "invalid cutoff", err)
	}

	p.logger.InfoContext(ctx, "starting forecasting run",
		"records", len(records),
		"cutoff", cutoff.Format("2006-01-02"),
		"horizon", p.cfg.Analysis.Horizon,
	)

	result := &Result{
		RunID:  infrastructure.GetRunID(ctx),
		Cutoff: cutoff,
	}

	cleaned, err := p.cleaner.Clean(ctx, records)
	if err != nil {
		return nil, err
	}
	result.Cleaned = cleaned

	imputed, report, err := p.imputer.Impute(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	result.Imputed = imputed
	result.Imputation = report

	dates := make([]time.Time, len(imputed))
	for i, r := range imputed {
		dates[i] = r.Date
	}
	partition, err := timeseries.Aggregate(ctx, dates, cutoff, p.logger)
	if err != nil {
		return nil, err
	}
	result.Historical = partition.Historical
	result.Actual = partition.Actual

	p.analyzeStationarity(ctx, result)

	model, search, err := p.selector.Select(ctx, partition.Historical)
	if err != nil {
		return nil, err
	}
	result.Search = search

	forecastStart := partition.Historical.End().Next()
	fc, err := forecast.Forecast(model, forecastStart, p.cfg.Analysis.Horizon, p.cfg.Analysis.Confidence)
	if err != nil {
		return nil, err
	}
	result.Forecast = fc

	quality := forecast.ValidateResiduals(ctx, fc, p.cfg.Analysis.LjungBoxLags, p.logger)
	if !quality.Clean {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("residual autocorrelation at lags %v", quality.FailedLags()))
	}

	comparison, err := forecast.Compare(fc, partition.Actual)
	if err != nil {
		return nil, err
	}
	result.Comparison = comparison

	result.Duration = time.Since(start)
	p.logger.InfoContext(ctx, "forecasting run completed",
		"chosen_order", search.ChosenOrder,
		"forecast_total", comparison.ForecastTotal,
		"actual_total", comparison.ActualTotal,
		"deviation", comparison.Deviation,
		"warnings", len(result.Warnings),
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

// analyzeStationarity runs the unit-root test and correlogram on the
// historical series. Low power or a degenerate series becomes a warning;
// the model search proceeds regardless.
func (p *Pipeline) analyzeStationarity(ctx context.Context, result *Result) {
	values := result.Historical.Values

	adf := stats.ADF(values, 0)
	if adf == nil {
		result.Warnings = append(result.Warnings, "unit-root test skipped: series too short or degenerate")
	} else {
		result.Diagnostics.ADF = adf
		if adf.LowPower {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("unit-root test has low power at %d observations", adf.NObs))
		}
		p.logger.InfoContext(ctx, "stationarity diagnostics",
			"adf_statistic", adf.Statistic,
			"adf_p_value", adf.PValue,
			"is_stationary", adf.IsStationary,
			"low_power", adf.LowPower,
		)
	}

	acf, pacf := stats.Correlogram(values, p.cfg.Analysis.MaxLag)
	result.Diagnostics.ACF = acf
	result.Diagnostics.PACF = pacf
}
