package forecast

import (
	"context"
	"log/slog"

	"shockcast/internal/stats"
)

// LagCheck is the portmanteau outcome at a single lag.
type LagCheck struct {
	Lag       int     `json:"lag"`
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Passed    bool    `json:"passed"`
}

// ResidualReport aggregates the Ljung-Box checks over the configured lags.
// Clean means every tested lag kept its p-value above 0.05; a failed lag is
// a quality flag on the result, never a fatal condition, because the search
// already chose the best available candidate.
type ResidualReport struct {
	Checks []LagCheck `json:"checks"`
	Clean  bool       `json:"clean"`
}

// FailedLags lists the lags whose null of white noise was rejected.
func (r *ResidualReport) FailedLags() []int {
	var failed []int
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c.Lag)
		}
	}
	return failed
}

// ValidateResiduals runs the Ljung-Box test on the model residuals at each
// configured lag and attaches the report to the result. fitdf is the number
// of estimated coefficients, which reduces the test's degrees of freedom.
func ValidateResiduals(ctx context.Context, result *Result, lags []int, logger *slog.Logger) *ResidualReport {
	if logger == nil {
		logger = slog.Default()
	}

	fitdf := result.Order.Complexity()
	report := &ResidualReport{Clean: true}

	for _, lag := range lags {
		lb := stats.LjungBox(result.Residuals, lag, fitdf)
		if lb == nil {
			continue
		}
		check := LagCheck{
			Lag:       lag,
			Statistic: lb.Statistic,
			PValue:    lb.PValue,
			Passed:    lb.PValue > 0.05,
		}
		report.Checks = append(report.Checks, check)
		if !check.Passed {
			report.Clean = false
		}
	}

	if report.Clean {
		logger.InfoContext(ctx, "residuals consistent with white noise",
			"order", result.Order.String(), "lags_tested", len(report.Checks))
	} else {
		logger.WarnContext(ctx, "residual autocorrelation detected",
			"order", result.Order.String(), "failed_lags", report.FailedLags())
	}

	result.Quality = report
	return report
}
