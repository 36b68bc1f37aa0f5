package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shockcast/internal/config"
	"shockcast/internal/errors"
	"shockcast/internal/sarima"
	"shockcast/internal/timeseries"
)

// lcgNoise produces a reproducible pseudo-random sequence in [-0.5, 0.5).
func lcgNoise(seed int64, n int) []float64 {
	x := seed
	out := make([]float64, n)
	for i := range out {
		x = (x*1103515245 + 12345) % (1 << 31)
		out[i] = float64(x)/float64(1<<31) - 0.5
	}
	return out
}

// seasonalSeries builds a monthly series with trend, a yearly cycle, and
// deterministic noise, long enough for the full search space.
func seasonalSeries(n int) *timeseries.Series {
	pattern := []float64{-8, -12, -6, 0, 9, 18, 25, 27, 20, 10, 1, -5}
	noise := lcgNoise(11, n)
	values := make([]float64, n)
	for i := range values {
		values[i] = 80 + 0.15*float64(i) + pattern[i%12] + noise[i]*6
	}
	return timeseries.NewSeries(timeseries.Month{Year: 2006, Month: time.January}, values)
}

func searchConfig() config.SearchConfig {
	cfg := config.Default().Analysis.Search
	cfg.MaxSteps = 15
	cfg.MaxConcurrency = 2
	cfg.Timeout = 30 * time.Second
	return cfg
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	series := seasonalSeries(168)

	t.Run("finds a valid model", func(t *testing.T) {
		model, report, err := NewSelector(searchConfig(), nil).Select(ctx, series)
		require.NoError(t, err)
		require.NotNil(t, model)
		require.NotNil(t, report)

		assert.True(t, model.Valid())
		assert.Equal(t, model.Order.String(), report.ChosenOrder)
		assert.Equal(t, 12, model.Order.Period)
		assert.Greater(t, report.Evaluated, 0)
		assert.Len(t, report.Attempted, report.Evaluated)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		first, firstReport, err := NewSelector(searchConfig(), nil).Select(ctx, series)
		require.NoError(t, err)
		second, secondReport, err := NewSelector(searchConfig(), nil).Select(ctx, series)
		require.NoError(t, err)

		assert.Equal(t, first.Order, second.Order)
		assert.Equal(t, first.AIC, second.AIC)
		assert.Equal(t, firstReport.ChosenOrder, secondReport.ChosenOrder)
	})

	t.Run("step budget bounds the search", func(t *testing.T) {
		cfg := searchConfig()
		cfg.MaxSteps = 2

		model, report, err := NewSelector(cfg, nil).Select(ctx, seasonalSeries(96))
		require.NoError(t, err)
		require.NotNil(t, model)
		assert.LessOrEqual(t, report.Evaluated, 2)
		assert.Equal(t, StopStepBudget, report.StopReason)
	})

	t.Run("short series yields ModelFitError with attempts", func(t *testing.T) {
		short := timeseries.NewSeries(timeseries.Month{Year: 2020, Month: time.January},
			lcgNoise(5, 12))

		_, _, err := NewSelector(searchConfig(), nil).Select(ctx, short)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeModelFitFailed))

		var pe *errors.PipelineError
		require.ErrorAs(t, err, &pe)
		attempted, ok := pe.Details.([]string)
		require.True(t, ok)
		assert.NotEmpty(t, attempted)
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err := NewSelector(searchConfig(), nil).Select(canceled, series)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeModelFitFailed))
	})
}

func TestBetter(t *testing.T) {
	lowAIC := sarima.New(sarima.Order{P: 2, Q: 1, Period: 12})
	lowAIC.AIC = 100
	highAIC := sarima.New(sarima.Order{P: 1, Period: 12})
	highAIC.AIC = 120
	tiedSimple := sarima.New(sarima.Order{P: 1, Period: 12})
	tiedSimple.AIC = 100

	t.Run("nil incumbent loses", func(t *testing.T) {
		assert.True(t, better(highAIC, nil))
	})

	t.Run("lower AIC wins even with more coefficients", func(t *testing.T) {
		assert.True(t, better(lowAIC, highAIC))
		assert.False(t, better(highAIC, lowAIC))
	})

	t.Run("tie goes to the simpler order", func(t *testing.T) {
		assert.True(t, better(tiedSimple, lowAIC))
		assert.False(t, better(lowAIC, tiedSimple))
	})

	t.Run("exact tie keeps the incumbent", func(t *testing.T) {
		other := sarima.New(sarima.Order{Q: 1, Period: 12})
		other.AIC = 100
		assert.False(t, better(other, tiedSimple))
	})
}
