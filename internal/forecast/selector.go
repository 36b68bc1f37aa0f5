// Package forecast selects a seasonal ARIMA model for the historical
// series, projects it over the withheld window, checks the residuals, and
// compares the projection against what actually happened.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"shockcast/internal/config"
	"shockcast/internal/errors"
	"shockcast/internal/sarima"
	"shockcast/internal/stats"
	"shockcast/internal/timeseries"
)

// Stop reasons recorded on the search report.
const (
	StopConverged  = "converged"
	StopStepBudget = "step_budget"
	StopTimeout    = "timeout"
)

// aicTolerance treats criterion scores within it as tied, so the simpler
// order wins.
const aicTolerance = 1e-9

// SearchReport summarizes a completed order search.
type SearchReport struct {
	ChosenOrder string   `json:"chosen_order"`
	AIC         float64  `json:"aic"`
	AICc        float64  `json:"aicc"`
	BIC         float64  `json:"bic"`
	Evaluated   int      `json:"evaluated"`
	Attempted   []string `json:"attempted"`
	StopReason  string   `json:"stop_reason"`
}

// Selector performs a bounded stepwise search over seasonal order space.
type Selector struct {
	cfg    config.SearchConfig
	logger *slog.Logger
}

// NewSelector creates a Selector with the given search bounds.
func NewSelector(cfg config.SearchConfig, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{cfg: cfg, logger: logger.With("component", "selector")}
}

// spec is a candidate order with the differencing fixed for the whole
// search.
type spec struct {
	p, q, sp, sq int
}

type candidate struct {
	spec  spec
	model *sarima.Model
	err   error
}

// Select searches for the lowest-AIC seasonal order and returns the fitted
// model. Differencing orders are decided once up front from unit-root and
// seasonal autocorrelation diagnostics; the stepwise search then expands
// neighbors of the current best until no neighbor improves, the step budget
// runs out, or the wall-clock timeout fires. Ties on AIC go to the lower
// total order, then to the first candidate discovered. Returns ModelFitError
// when no candidate converges to a valid likelihood.
func (s *Selector) Select(ctx context.Context, series *timeseries.Series) (*sarima.Model, *SearchReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	started := time.Now()
	d := s.determineDifferencing(series)
	sd := s.determineSeasonalDifferencing(series)

	s.logger.InfoContext(ctx, "order search started",
		"d", d, "sd", sd, "max_steps", s.cfg.MaxSteps, "timeout", s.cfg.Timeout.String())

	seeds := []spec{
		{0, 0, 0, 0},
		{1, 0, 1, 0},
		{0, 1, 0, 1},
		{1, 1, 1, 1},
		{2, 2, 1, 1},
	}

	var (
		best      *sarima.Model
		evaluated int
		attempted []string
		tried     = map[spec]bool{}
		stop      = StopConverged
	)

	evaluate := func(batch []spec) []candidate {
		var runnable []spec
		for _, sp := range batch {
			if tried[sp] || !s.inBounds(sp) {
				continue
			}
			if evaluated+len(runnable) >= s.cfg.MaxSteps {
				stop = StopStepBudget
				break
			}
			runnable = append(runnable, sp)
		}

		results := make([]candidate, len(runnable))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.MaxConcurrency)
		for i, sp := range runnable {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					results[i] = candidate{spec: sp, err: err}
					return nil
				}
				m := sarima.New(sarima.Order{
					P: sp.p, D: d, Q: sp.q,
					SP: sp.sp, SD: sd, SQ: sp.sq,
					Period: series.Frequency,
				})
				results[i] = candidate{spec: sp, model: m, err: m.Fit(series)}
				return nil
			})
		}
		_ = g.Wait()

		for _, c := range results {
			tried[c.spec] = true
			evaluated++
			attempted = append(attempted, sarima.Order{
				P: c.spec.p, D: d, Q: c.spec.q,
				SP: c.spec.sp, SD: sd, SQ: c.spec.sq,
				Period: series.Frequency,
			}.String())
		}
		return results
	}

	// Reduction is sequential in discovery order, so ties resolve
	// deterministically regardless of fit scheduling.
	reduce := func(batch []candidate) bool {
		improved := false
		for _, c := range batch {
			if c.err != nil || !c.model.Valid() {
				continue
			}
			if better(c.model, best) {
				best = c.model
				improved = true
			}
		}
		return improved
	}

	reduce(evaluate(seeds))

	for stop == StopConverged {
		if err := ctx.Err(); err != nil {
			stop = StopTimeout
			break
		}
		if best == nil {
			break
		}

		b := specOf(best.Order)
		neighbors := []spec{
			{b.p + 1, b.q, b.sp, b.sq},
			{b.p - 1, b.q, b.sp, b.sq},
			{b.p, b.q + 1, b.sp, b.sq},
			{b.p, b.q - 1, b.sp, b.sq},
			{b.p, b.q, b.sp + 1, b.sq},
			{b.p, b.q, b.sp - 1, b.sq},
			{b.p, b.q, b.sp, b.sq + 1},
			{b.p, b.q, b.sp, b.sq - 1},
		}

		if !reduce(evaluate(neighbors)) && stop == StopConverged {
			break
		}
	}

	if best == nil {
		s.logger.ErrorContext(ctx, "order search exhausted without a valid fit",
			"evaluated", evaluated, "stop_reason", stop)
		return nil, nil, errors.ModelFitError(
			fmt.Sprintf("no candidate order converged after %d fits", evaluated), attempted)
	}

	report := &SearchReport{
		ChosenOrder: best.Order.String(),
		AIC:         best.AIC,
		AICc:        best.AICc,
		BIC:         best.BIC,
		Evaluated:   evaluated,
		Attempted:   attempted,
		StopReason:  stop,
	}

	s.logger.InfoContext(ctx, "order search finished",
		"chosen_order", report.ChosenOrder,
		"aic", report.AIC,
		"evaluated", evaluated,
		"stop_reason", stop,
		"duration_ms", time.Since(started).Milliseconds())

	return best, report, nil
}

// better reports whether the challenger beats the incumbent: lower AIC
// first, then fewer coefficients on a tie. A nil incumbent always loses.
func better(challenger, incumbent *sarima.Model) bool {
	if incumbent == nil {
		return true
	}
	if challenger.AIC < incumbent.AIC-aicTolerance {
		return true
	}
	if math.Abs(challenger.AIC-incumbent.AIC) <= aicTolerance {
		return challenger.Order.Complexity() < incumbent.Order.Complexity()
	}
	return false
}

func (s *Selector) inBounds(sp spec) bool {
	return sp.p >= 0 && sp.p <= s.cfg.MaxP &&
		sp.q >= 0 && sp.q <= s.cfg.MaxQ &&
		sp.sp >= 0 && sp.sp <= s.cfg.MaxSP &&
		sp.sq >= 0 && sp.sq <= s.cfg.MaxSQ
}

func specOf(o sarima.Order) spec {
	return spec{p: o.P, q: o.Q, sp: o.SP, sq: o.SQ}
}

// determineDifferencing picks the smallest d within bounds at which the
// unit-root test rejects.
func (s *Selector) determineDifferencing(series *timeseries.Series) int {
	current := series
	for d := 0; d < s.cfg.MaxD; d++ {
		result := stats.ADF(current.Values, 0)
		if result != nil && result.IsStationary {
			return d
		}
		current = current.Diff()
		if current.Len() < 10 {
			return d
		}
	}
	return s.cfg.MaxD
}

// determineSeasonalDifferencing applies one round of seasonal differencing
// when the autocorrelation at the seasonal lag is strong.
func (s *Selector) determineSeasonalDifferencing(series *timeseries.Series) int {
	if s.cfg.MaxSD < 1 {
		return 0
	}
	acf := stats.ACF(series.Values, series.Frequency*2)
	if acf == nil || len(acf) <= series.Frequency {
		return 0
	}
	if math.Abs(acf[series.Frequency]) > 0.5 {
		return 1
	}
	return 0
}
