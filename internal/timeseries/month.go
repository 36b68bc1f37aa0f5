// Package timeseries provides the monthly count series the modeling stages
// operate on: calendar month keys, fixed-frequency series, and the
// aggregation that buckets incident dates into contiguous monthly counts.
package timeseries

import (
	"fmt"
	"time"
)

// SeasonalPeriod is the declared frequency of every monthly series.
const SeasonalPeriod = 12

// Month is a calendar month key.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a key in the form YYYY-MM.
func ParseMonth(key string) (Month, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return Month{}, fmt.Errorf("parse month key %q: %w", key, err)
	}
	return MonthOf(t), nil
}

// Key returns the canonical YYYY-MM form.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// String implements fmt.Stringer.
func (m Month) String() string { return m.Key() }

// Time returns midnight UTC on the first day of the month.
func (m Month) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the month n calendar months later (earlier for n < 0).
func (m Month) AddMonths(n int) Month {
	return MonthOf(m.Time().AddDate(0, n, 0))
}

// Next returns the following calendar month.
func (m Month) Next() Month { return m.AddMonths(1) }

// Before reports whether m precedes o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Sub returns the number of months from o to m.
func (m Month) Sub(o Month) int {
	return (m.Year-o.Year)*12 + int(m.Month) - int(o.Month)
}

// MonthlyCount pairs a month key with its non-negative incident count.
type MonthlyCount struct {
	Month Month `json:"month"`
	Count int   `json:"count"`
}
