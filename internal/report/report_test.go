package report

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shockcast/internal/forecast"
	"shockcast/internal/incident"
	"shockcast/internal/pipeline"
	"shockcast/internal/sarima"
	"shockcast/internal/timeseries"
)

func fixtureResult() *pipeline.Result {
	start := timeseries.Month{Year: 2020, Month: time.January}

	points := make([]forecast.Point, 12)
	for i := range points {
		points[i] = forecast.Point{
			Month:    start.AddMonths(i).Key(),
			Forecast: 71,
			Lower:    55,
			Upper:    87,
		}
	}

	actuals := []float64{98, 105, 112, 131, 155, 205, 244, 242, 195, 168, 152, 135}

	return &pipeline.Result{
		RunID:      "run-123",
		Cutoff:     time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		Historical: timeseries.NewSeries(timeseries.Month{Year: 2014, Month: time.January}, make([]float64, 72)),
		Actual:     timeseries.NewSeries(start, actuals),
		Imputation: &incident.Report{
			Strategy:    "mode",
			ImputedRace: incident.Category("GROUP A"),
			Imputed:     120,
			Total:       600,
		},
		Search: &forecast.SearchReport{
			ChosenOrder: "(1,1,1)(0,1,1)[12]",
			AIC:         432.1,
			Evaluated:   9,
			StopReason:  forecast.StopConverged,
		},
		Forecast: &forecast.Result{
			Order:      sarima.Order{P: 1, D: 1, Q: 1, SD: 1, SQ: 1, Period: 12},
			Confidence: 0.95,
			Points:     points,
			Quality: &forecast.ResidualReport{
				Clean: true,
				Checks: []forecast.LagCheck{
					{Lag: 5, Statistic: 3.2, PValue: 0.67, Passed: true},
					{Lag: 10, Statistic: 8.1, PValue: 0.52, Passed: true},
				},
			},
		},
		Comparison: &forecast.Comparison{
			ForecastTotal: 852,
			ActualTotal:   1942,
			Deviation:     1090,
			Ratio:         2.28,
			Months:        12,
		},
		Warnings: []string{"unit-root test has low power at 40 observations"},
	}
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	csvPath, summaryPath, err := w.WriteAll(context.Background(), fixtureResult())
	require.NoError(t, err)

	assert.FileExists(t, csvPath)
	assert.FileExists(t, summaryPath)
	assert.Equal(t, dir, filepath.Dir(csvPath))
}

func TestWriteForecastCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forecast.csv")

	require.NoError(t, NewWriter(dir, nil).WriteForecastCSV(fixtureResult(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 13)

	assert.Equal(t, []string{"month", "forecast", "lower", "upper", "actual"}, rows[0])
	assert.Equal(t, []string{"2020-01", "71.00", "55.00", "87.00", "98"}, rows[1])
	assert.Equal(t, "2020-12", rows[12][0])
	assert.Equal(t, "135", rows[12][4])
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.txt")

	require.NoError(t, NewWriter(dir, nil).WriteSummary(fixtureResult(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Run ID:        run-123")
	assert.Contains(t, text, "Order:     (1,1,1)(0,1,1)[12]")
	assert.Contains(t, text, "Forecast total: 852")
	assert.Contains(t, text, "Actual total:   1942")
	assert.Contains(t, text, "Deviation:      1090")
	assert.Contains(t, text, "lag  5")
	assert.Contains(t, text, "low power")
}
