// Command forecast-report runs the counterfactual forecasting pipeline over
// an incident table and writes the forecast report and run summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"shockcast/internal/config"
	"shockcast/internal/incident"
	"shockcast/internal/infrastructure"
	"shockcast/internal/pipeline"
	"shockcast/internal/report"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	inputPath := flag.String("input", "", "incident table (CSV or XLSX); overrides the configured path")
	outputDir := flag.String("out", "", "output directory for reports; overrides the configured directory")
	cutoff := flag.String("cutoff", "", "first withheld month, YYYY-MM-DD; overrides the configured cutoff")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *inputPath != "" {
		cfg.Data.InputPath = *inputPath
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}
	if *cutoff != "" {
		cfg.Analysis.Cutoff = *cutoff
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid cutoff override", "error", err)
			os.Exit(1)
		}
	}
	if cfg.Data.InputPath == "" {
		slog.Error("no input path configured", "hint", "set data.input_path or pass -input")
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.EnsureRunID(context.Background())

	logger.InfoContext(ctx, "loading incident records", "path", cfg.Data.InputPath)
	records, err := incident.Load(cfg.Data.InputPath, cfg.Data.Sheet)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load incident records", "error", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.ErrorContext(ctx, "no incident records found", "path", cfg.Data.InputPath)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "loaded incident records", "records", len(records))

	result, err := pipeline.New(cfg, logger).Run(ctx, records)
	if err != nil {
		logger.ErrorContext(ctx, "pipeline run failed", "error", err)
		os.Exit(1)
	}

	csvPath, summaryPath, err := report.NewWriter(cfg.Report.OutputDir, logger).WriteAll(ctx, result)
	if err != nil {
		logger.ErrorContext(ctx, "failed to write report", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "forecast report generated",
		"report", csvPath,
		"summary", summaryPath,
		"chosen_order", result.Search.ChosenOrder,
	)

	printRunSummary(result)
}

func printRunSummary(result *pipeline.Result) {
	fmt.Printf("\n=== FORECAST VS ACTUAL (%s cutoff) ===\n", result.Cutoff.Format("2006-01-02"))
	fmt.Printf("Model:          %s (AIC %.2f)\n", result.Search.ChosenOrder, result.Search.AIC)
	fmt.Printf("Forecast total: %.0f\n", result.Comparison.ForecastTotal)
	fmt.Printf("Actual total:   %.0f\n", result.Comparison.ActualTotal)
	fmt.Printf("Deviation:      %.0f (ratio %.2f)\n", result.Comparison.Deviation, result.Comparison.Ratio)

	if len(result.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range result.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}
