// Package report renders a completed pipeline run to files: the forecast
// table as CSV and a plain-text run summary.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shockcast/internal/pipeline"
)

// Writer persists run outputs under a single directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger.With("component", "report")}
}

// WriteAll writes the forecast CSV and the summary for a run, named by the
// run date. Returns the paths written.
func (w *Writer) WriteAll(ctx context.Context, result *pipeline.Result) (csvPath, summaryPath string, err error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report directory: %w", err)
	}

	stamp := time.Now().Format("20060102")
	csvPath = filepath.Join(w.dir, fmt.Sprintf("forecast_report_%s.csv", stamp))
	summaryPath = filepath.Join(w.dir, fmt.Sprintf("forecast_summary_%s.txt", stamp))

	if err := w.WriteForecastCSV(result, csvPath); err != nil {
		return "", "", err
	}
	if err := w.WriteSummary(result, summaryPath); err != nil {
		return "", "", err
	}

	w.logger.InfoContext(ctx, "run report written",
		"csv", csvPath,
		"summary", summaryPath,
		"months", len(result.Forecast.Points),
	)
	return csvPath, summaryPath, nil
}

// WriteForecastCSV writes one row per forecast month: the point estimate,
// its interval, and the observed count where the actual series covers the
// month.
func (w *Writer) WriteForecastCSV(result *pipeline.Result, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create forecast csv: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	defer cw.Flush()

	if err := cw.Write([]string{"month", "forecast", "lower", "upper", "actual"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, p := range result.Forecast.Points {
		actual := ""
		if result.Actual != nil && i < result.Actual.Len() {
			actual = fmt.Sprintf("%.0f", result.Actual.Values[i])
		}
		row := []string{
			p.Month,
			fmt.Sprintf("%.2f", p.Forecast),
			fmt.Sprintf("%.2f", p.Lower),
			fmt.Sprintf("%.2f", p.Upper),
			actual,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	return cw.Error()
}

// WriteSummary writes the human-readable run summary.
func (w *Writer) WriteSummary(result *pipeline.Result, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Counterfactual Forecast Summary\n")
	fmt.Fprintf(&b, "===============================\n\n")
	fmt.Fprintf(&b, "Run ID:        %s\n", result.RunID)
	fmt.Fprintf(&b, "Cutoff:        %s\n", result.Cutoff.Format("2006-01-02"))
	fmt.Fprintf(&b, "Historical:    %s .. %s (%d months)\n",
		result.Historical.Start.Key(), result.Historical.End().Key(), result.Historical.Len())
	fmt.Fprintf(&b, "Actual:        %s .. %s (%d months)\n",
		result.Actual.Start.Key(), result.Actual.End().Key(), result.Actual.Len())

	if result.Imputation != nil {
		fmt.Fprintf(&b, "\nImputation (%s strategy)\n", result.Imputation.Strategy)
		fmt.Fprintf(&b, "  Imputed records: %d of %d\n", result.Imputation.Imputed, result.Imputation.Total)
		fmt.Fprintf(&b, "  Substituted race: %s\n", result.Imputation.ImputedRace)
	}

	if adf := result.Diagnostics.ADF; adf != nil {
		fmt.Fprintf(&b, "\nStationarity\n")
		fmt.Fprintf(&b, "  ADF statistic: %.4f (p=%.3f, stationary=%v)\n",
			adf.Statistic, adf.PValue, adf.IsStationary)
	}

	fmt.Fprintf(&b, "\nModel\n")
	fmt.Fprintf(&b, "  Order:     %s\n", result.Search.ChosenOrder)
	fmt.Fprintf(&b, "  AIC:       %.2f\n", result.Search.AIC)
	fmt.Fprintf(&b, "  Evaluated: %d candidates (%s)\n", result.Search.Evaluated, result.Search.StopReason)

	if q := result.Forecast.Quality; q != nil {
		fmt.Fprintf(&b, "\nResidual checks (Ljung-Box)\n")
		for _, c := range q.Checks {
			verdict := "pass"
			if !c.Passed {
				verdict = "FAIL"
			}
			fmt.Fprintf(&b, "  lag %2d: Q=%.2f p=%.3f %s\n", c.Lag, c.Statistic, c.PValue, verdict)
		}
	}

	if c := result.Comparison; c != nil {
		fmt.Fprintf(&b, "\nForecast vs actual (%d months)\n", c.Months)
		fmt.Fprintf(&b, "  Forecast total: %.0f\n", c.ForecastTotal)
		fmt.Fprintf(&b, "  Actual total:   %.0f\n", c.ActualTotal)
		fmt.Fprintf(&b, "  Deviation:      %.0f\n", c.Deviation)
		fmt.Fprintf(&b, "  Ratio:          %.2f\n", c.Ratio)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(&b, "\nWarnings\n")
		for _, warn := range result.Warnings {
			fmt.Fprintf(&b, "  - %s\n", warn)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
