package timeseries

import (
	"math"

	"shockcast/internal/errors"
)

// Series is an ordered monthly series anchored at a start month. Values are
// stored as float64 so the modeling stages can difference and transform them
// without reallocation churn; counts round-trip exactly (they are small
// integers).
type Series struct {
	Start     Month
	Values    []float64
	Frequency int
}

// NewSeries creates a monthly series starting at start.
func NewSeries(start Month, values []float64) *Series {
	return &Series{Start: start, Values: values, Frequency: SeasonalPeriod}
}

// FromCounts builds a series from an ordered monthly count sequence,
// enforcing the contiguity invariant: strictly increasing month keys with no
// gaps and no negative counts.
func FromCounts(counts []MonthlyCount) (*Series, error) {
	if len(counts) == 0 {
		return nil, errors.ValidationError("empty monthly count sequence")
	}

	values := make([]float64, len(counts))
	expected := counts[0].Month
	for i, mc := range counts {
		if mc.Month != expected {
			return nil, errors.ValidationError(
				"non-contiguous month sequence: expected " + expected.Key() + ", got " + mc.Month.Key())
		}
		if mc.Count < 0 {
			return nil, errors.ValidationError("negative count for " + mc.Month.Key())
		}
		values[i] = float64(mc.Count)
		expected = expected.Next()
	}

	return NewSeries(counts[0].Month, values), nil
}

// Counts converts the series back to (month, count) pairs in order.
func (s *Series) Counts() []MonthlyCount {
	counts := make([]MonthlyCount, len(s.Values))
	for i, v := range s.Values {
		counts[i] = MonthlyCount{Month: s.MonthAt(i), Count: int(math.Round(v))}
	}
	return counts
}

// Len returns the number of months in the series.
func (s *Series) Len() int { return len(s.Values) }

// MonthAt returns the month key for index i.
func (s *Series) MonthAt(i int) Month { return s.Start.AddMonths(i) }

// End returns the last month in the series.
func (s *Series) End() Month { return s.MonthAt(s.Len() - 1) }

// Sum returns the total of all values.
func (s *Series) Sum() float64 {
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum
}

// Mean returns the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.Sum() / float64(len(s.Values))
}

// Variance returns the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	mean := s.Mean()
	sumSq := 0.0
	for _, v := range s.Values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(s.Values)-1)
}

// Copy returns a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)
	return &Series{Start: s.Start, Values: values, Frequency: s.Frequency}
}

// Diff returns the first-differenced series. The start month advances by one
// since the first observation is consumed.
func (s *Series) Diff() *Series {
	return s.lagDiff(1)
}

// SeasonalDiff returns the seasonally differenced series with period m.
func (s *Series) SeasonalDiff(m int) *Series {
	return s.lagDiff(m)
}

func (s *Series) lagDiff(lag int) *Series {
	if lag <= 0 || len(s.Values) <= lag {
		return &Series{Start: s.Start, Frequency: s.Frequency}
	}
	result := make([]float64, len(s.Values)-lag)
	for i := lag; i < len(s.Values); i++ {
		result[i-lag] = s.Values[i] - s.Values[i-lag]
	}
	return &Series{Start: s.Start.AddMonths(lag), Values: result, Frequency: s.Frequency}
}
