package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shockcast/internal/errors"
	"shockcast/internal/timeseries"
)

// comparisonFixture reproduces the documented baseline run: a 12-month
// projection totaling 854 against a withheld window totaling 1942.
func comparisonFixture() (*Result, *timeseries.Series) {
	start := timeseries.Month{Year: 2020, Month: time.January}

	forecasts := []float64{70, 71, 69, 72, 73, 71, 72, 71, 72, 71, 71, 71}
	points := make([]Point, len(forecasts))
	for i, f := range forecasts {
		points[i] = Point{Month: start.AddMonths(i).Key(), Forecast: f}
	}

	actuals := []float64{98, 105, 112, 131, 155, 205, 244, 242, 195, 168, 152, 135}
	return &Result{Points: points}, timeseries.NewSeries(start, actuals)
}

func TestCompare(t *testing.T) {
	t.Run("baseline deviation", func(t *testing.T) {
		result, actual := comparisonFixture()

		c, err := Compare(result, actual)
		require.NoError(t, err)

		assert.InDelta(t, 854.0, c.ForecastTotal, 1e-9)
		assert.InDelta(t, 1942.0, c.ActualTotal, 1e-9)
		assert.InDelta(t, 1088.0, c.Deviation, 1e-9)
		assert.InDelta(t, 2.274, c.Ratio, 1e-3)
		assert.Equal(t, 12, c.Months)
	})

	t.Run("shorter actual window truncates", func(t *testing.T) {
		result, actual := comparisonFixture()
		short := timeseries.NewSeries(actual.Start, actual.Values[:6])

		c, err := Compare(result, short)
		require.NoError(t, err)
		assert.Equal(t, 6, c.Months)
		assert.InDelta(t, 98+105+112+131+155+205, c.ActualTotal, 1e-9)
	})

	t.Run("misaligned actual rejected", func(t *testing.T) {
		result, actual := comparisonFixture()
		shifted := timeseries.NewSeries(actual.Start.AddMonths(1), actual.Values)

		_, err := Compare(result, shifted)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeValidationFailed))
	})

	t.Run("empty inputs rejected", func(t *testing.T) {
		result, actual := comparisonFixture()

		_, err := Compare(&Result{}, actual)
		assert.Error(t, err)

		_, err = Compare(result, nil)
		assert.Error(t, err)
	})
}
