package timeseries

import (
	"context"
	"log/slog"
	"time"

	"shockcast/internal/errors"
)

// Partition is the historical/actual series pair split at the shock cutoff.
// Historical covers months strictly before the cutoff; Actual covers months
// from the cutoff onward.
type Partition struct {
	Historical *Series
	Actual     *Series
}

// Aggregate buckets incident dates into two contiguous monthly count series
// split at cutoff. Every calendar month between the first and last date of a
// partition appears in its series, with a zero count when no incident fell in
// it; a plain group-by would silently drop empty months and shift the
// seasonal alignment of everything after them.
func Aggregate(ctx context.Context, dates []time.Time, cutoff time.Time, logger *slog.Logger) (*Partition, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var historical, actual []time.Time
	for _, d := range dates {
		if d.Before(cutoff) {
			historical = append(historical, d)
		} else {
			actual = append(actual, d)
		}
	}

	if len(historical) == 0 {
		return nil, errors.ValidationError("historical partition is empty: no records before cutoff")
	}
	if len(actual) == 0 {
		return nil, errors.ValidationError("actual partition is empty: no records on or after cutoff")
	}

	hist := bucketMonthly(historical)
	act := bucketMonthly(actual)

	logger.InfoContext(ctx, "aggregation completed",
		"historical_months", hist.Len(),
		"historical_records", len(historical),
		"actual_months", act.Len(),
		"actual_records", len(actual),
		"cutoff", cutoff.Format("2006-01-02"),
	)

	return &Partition{Historical: hist, Actual: act}, nil
}

// bucketMonthly counts dates per calendar month over the full month range of
// the input, materializing zero counts for empty months.
func bucketMonthly(dates []time.Time) *Series {
	first := MonthOf(dates[0])
	last := first
	counts := make(map[Month]int, len(dates))

	for _, d := range dates {
		m := MonthOf(d)
		counts[m]++
		if m.Before(first) {
			first = m
		}
		if last.Before(m) {
			last = m
		}
	}

	span := last.Sub(first) + 1
	values := make([]float64, span)
	for i := 0; i < span; i++ {
		values[i] = float64(counts[first.AddMonths(i)])
	}

	return NewSeries(first, values)
}
