package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonth(t *testing.T) {
	t.Run("key format", func(t *testing.T) {
		assert.Equal(t, "2020-01", Month{2020, time.January}.Key())
		assert.Equal(t, "2006-12", Month{2006, time.December}.Key())
	})

	t.Run("next wraps year boundary", func(t *testing.T) {
		assert.Equal(t, Month{2020, time.January}, Month{2019, time.December}.Next())
	})

	t.Run("add months", func(t *testing.T) {
		assert.Equal(t, Month{2021, time.March}, Month{2020, time.January}.AddMonths(14))
		assert.Equal(t, Month{2019, time.November}, Month{2020, time.January}.AddMonths(-2))
	})

	t.Run("sub counts months between", func(t *testing.T) {
		assert.Equal(t, 14, Month{2021, time.March}.Sub(Month{2020, time.January}))
		assert.Equal(t, 0, Month{2020, time.May}.Sub(Month{2020, time.May}))
	})

	t.Run("parse round-trip", func(t *testing.T) {
		m, err := ParseMonth("2017-06")
		require.NoError(t, err)
		assert.Equal(t, Month{2017, time.June}, m)
		assert.Equal(t, "2017-06", m.Key())

		_, err = ParseMonth("06/2017")
		assert.Error(t, err)
	})
}

func TestSeriesRoundTrip(t *testing.T) {
	counts := []MonthlyCount{
		{Month{2019, time.November}, 7},
		{Month{2019, time.December}, 0},
		{Month{2020, time.January}, 12},
		{Month{2020, time.February}, 3},
	}

	series, err := FromCounts(counts)
	require.NoError(t, err)
	assert.Equal(t, SeasonalPeriod, series.Frequency)
	assert.Equal(t, counts, series.Counts())
}

func TestFromCountsValidation(t *testing.T) {
	t.Run("empty sequence rejected", func(t *testing.T) {
		_, err := FromCounts(nil)
		assert.Error(t, err)
	})

	t.Run("gap rejected", func(t *testing.T) {
		_, err := FromCounts([]MonthlyCount{
			{Month{2020, time.January}, 1},
			{Month{2020, time.March}, 2},
		})
		assert.Error(t, err)
	})

	t.Run("negative count rejected", func(t *testing.T) {
		_, err := FromCounts([]MonthlyCount{{Month{2020, time.January}, -1}})
		assert.Error(t, err)
	})
}

func TestSeriesStatistics(t *testing.T) {
	s := NewSeries(Month{2020, time.January}, []float64{2, 4, 6, 8})

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 20.0, s.Sum())
	assert.Equal(t, 5.0, s.Mean())
	assert.InDelta(t, 6.6667, s.Variance(), 1e-3)
	assert.Equal(t, Month{2020, time.April}, s.End())
}

func TestSeriesDiff(t *testing.T) {
	s := NewSeries(Month{2020, time.January}, []float64{1, 4, 9, 16, 25})

	t.Run("first difference", func(t *testing.T) {
		d := s.Diff()
		assert.Equal(t, []float64{3, 5, 7, 9}, d.Values)
		assert.Equal(t, Month{2020, time.February}, d.Start)
	})

	t.Run("seasonal difference", func(t *testing.T) {
		d := s.SeasonalDiff(2)
		assert.Equal(t, []float64{8, 12, 16}, d.Values)
		assert.Equal(t, Month{2020, time.March}, d.Start)
	})

	t.Run("lag longer than series yields empty", func(t *testing.T) {
		assert.Equal(t, 0, s.SeasonalDiff(12).Len())
	})

	t.Run("source unchanged", func(t *testing.T) {
		_ = s.Diff()
		assert.Equal(t, []float64{1, 4, 9, 16, 25}, s.Values)
	})
}
