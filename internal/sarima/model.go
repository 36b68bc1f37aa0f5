// Package sarima implements seasonal ARIMA models fitted by conditional
// sum of squares. Orders are written (p,d,q)(P,D,Q)[m] with m the seasonal
// period, 12 for monthly incident counts.
package sarima

import (
	"fmt"
	"math"

	"shockcast/internal/errors"
	"shockcast/internal/stats"
	"shockcast/internal/timeseries"
)

// Order identifies a SARIMA model: non-seasonal (P, D, Q) and seasonal
// (SP, SD, SQ) orders with the seasonal period.
type Order struct {
	P      int `json:"p"`
	D      int `json:"d"`
	Q      int `json:"q"`
	SP     int `json:"sp"`
	SD     int `json:"sd"`
	SQ     int `json:"sq"`
	Period int `json:"period"`
}

// String renders the order in the conventional notation, e.g.
// "(1,1,1)(0,1,1)[12]".
func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.Period)
}

// NumParams returns the number of estimated parameters, intercept included.
func (o Order) NumParams() int {
	return o.P + o.Q + o.SP + o.SQ + 1
}

// Complexity is the total coefficient count, used to break AIC ties in
// favor of the simpler model.
func (o Order) Complexity() int {
	return o.P + o.Q + o.SP + o.SQ
}

// Model is a seasonal ARIMA model. Fit must be called before Forecast,
// Residuals, or the information criteria are meaningful.
type Model struct {
	Order     Order     `json:"order"`
	ARCoeffs  []float64 `json:"ar_coeffs"`
	MACoeffs  []float64 `json:"ma_coeffs"`
	SARCoeffs []float64 `json:"sar_coeffs"`
	SMACoeffs []float64 `json:"sma_coeffs"`
	Intercept float64   `json:"intercept"`
	Variance  float64   `json:"variance"`
	AIC       float64   `json:"aic"`
	AICc      float64   `json:"aicc"`
	BIC       float64   `json:"bic"`
	LogLik    float64   `json:"log_lik"`

	fitted    bool
	data      *timeseries.Series
	diffData  *timeseries.Series
	residuals  []float64
	fittedVals []float64
}

// New creates an unfitted model with the given order.
func New(order Order) *Model {
	return &Model{
		Order:     order,
		ARCoeffs:  make([]float64, order.P),
		MACoeffs:  make([]float64, order.Q),
		SARCoeffs: make([]float64, order.SP),
		SMACoeffs: make([]float64, order.SQ),
	}
}

// MinObservations returns the shortest series the order can be fitted on.
func (o Order) MinObservations() int {
	return o.P + o.Q + o.D + (o.SP+o.SD+o.SQ)*o.Period + 20
}

// Fit estimates the model on the series. Differencing is applied
// non-seasonal first, then seasonal; coefficients are estimated by
// gradient descent on the conditional sum of squares.
func (m *Model) Fit(series *timeseries.Series) error {
	if series.Len() < m.Order.MinObservations() {
		return errors.New(errors.CodeModelFitFailed,
			fmt.Sprintf("series of %d observations is too short for order %s", series.Len(), m.Order))
	}

	m.data = series

	diffed := series
	for i := 0; i < m.Order.D; i++ {
		diffed = diffed.Diff()
		if diffed.Len() == 0 {
			return errors.New(errors.CodeModelFitFailed, "differencing exhausted the series")
		}
	}
	for i := 0; i < m.Order.SD; i++ {
		diffed = diffed.SeasonalDiff(m.Order.Period)
		if diffed.Len() == 0 {
			return errors.New(errors.CodeModelFitFailed, "seasonal differencing exhausted the series")
		}
	}
	m.diffData = diffed

	m.estimateCSS()
	m.calculateIC()
	m.fitted = true
	return nil
}

// estimateCSS seeds the coefficients from the sample ACF and refines them
// with momentum gradient descent, keeping the best solution seen.
func (m *Model) estimateCSS() {
	y := m.diffData.Values
	n := len(y)
	order := m.Order

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	m.Intercept = mean / float64(n)

	if order.P > 0 {
		if acf := stats.ACF(y, order.P); acf != nil {
			for i := 0; i < order.P && i+1 < len(acf); i++ {
				m.ARCoeffs[i] = acf[i+1] * 0.5
			}
		}
	}
	if order.SP > 0 {
		if acf := stats.ACF(y, order.SP*order.Period); acf != nil {
			for i := 0; i < order.SP; i++ {
				if idx := (i + 1) * order.Period; idx < len(acf) {
					m.SARCoeffs[i] = acf[idx] * 0.5
				}
			}
		}
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}
	for i := range m.SMACoeffs {
		m.SMACoeffs[i] = 0.1
	}

	m.optimize(y)
}

func (m *Model) optimize(y []float64) {
	n := len(y)
	p, q := m.Order.P, m.Order.Q
	sp, sq := m.Order.SP, m.Order.SQ
	period := m.Order.Period

	const (
		maxIter   = 200
		tolerance = 1e-8
		momentum  = 0.9
		decay     = 0.99
	)
	learningRate := 0.005

	arVel := make([]float64, p)
	maVel := make([]float64, q)
	sarVel := make([]float64, sp)
	smaVel := make([]float64, sq)

	startIdx := max(max(p, q), max(sp*period, sq*period))
	if startIdx >= n-10 {
		startIdx = 0
	}

	bestSSE := math.Inf(1)
	bestAR := make([]float64, p)
	bestMA := make([]float64, q)
	bestSAR := make([]float64, sp)
	bestSMA := make([]float64, sq)
	noImprove := 0

	for iter := 0; iter < maxIter; iter++ {
		residuals := make([]float64, n)
		sse := 0.0
		for t := startIdx; t < n; t++ {
			residuals[t] = y[t] - m.predictOne(y, residuals, t, n)
			sse += residuals[t] * residuals[t]
		}

		if sse < bestSSE {
			bestSSE = sse
			copy(bestAR, m.ARCoeffs)
			copy(bestMA, m.MACoeffs)
			copy(bestSAR, m.SARCoeffs)
			copy(bestSMA, m.SMACoeffs)
			noImprove = 0
		} else {
			noImprove++
		}
		if noImprove > 20 {
			break
		}

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		sarGrad := make([]float64, sp)
		smaGrad := make([]float64, sq)

		for t := startIdx; t < n; t++ {
			for i := 0; i < p && t-i-1 >= 0; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < sp; i++ {
				if lag := (i + 1) * period; t-lag >= 0 {
					sarGrad[i] -= 2 * residuals[t] * (y[t-lag] - m.Intercept)
				}
			}
			for i := 0; i < q && t-i-1 >= 0; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
			for i := 0; i < sq; i++ {
				if lag := (i + 1) * period; t-lag >= 0 {
					smaGrad[i] -= 2 * residuals[t] * residuals[t-lag]
				}
			}
		}

		step := func(coeffs, vel, grad []float64) {
			for i := range coeffs {
				vel[i] = momentum*vel[i] + learningRate*grad[i]/float64(n)
				coeffs[i] = clamp(coeffs[i]-vel[i], -0.99, 0.99)
			}
		}
		step(m.ARCoeffs, arVel, arGrad)
		step(m.SARCoeffs, sarVel, sarGrad)
		step(m.MACoeffs, maVel, maGrad)
		step(m.SMACoeffs, smaVel, smaGrad)

		learningRate *= decay

		if iter > 0 && math.Abs(sse-bestSSE) < tolerance {
			break
		}
	}

	copy(m.ARCoeffs, bestAR)
	copy(m.MACoeffs, bestMA)
	copy(m.SARCoeffs, bestSAR)
	copy(m.SMACoeffs, bestSMA)

	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	for t := 0; t < n; t++ {
		m.fittedVals[t] = m.predictOne(y, m.residuals, t, n)
		m.residuals[t] = y[t] - m.fittedVals[t]
	}

	sse := 0.0
	count := 0
	for t := startIdx; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	if count > m.Order.NumParams() {
		m.Variance = sse / float64(count-m.Order.NumParams())
	} else {
		m.Variance = sse / float64(count)
	}
}

// predictOne computes the one-step prediction at index t on the differenced
// scale. Residuals beyond horizon are read as zero: indices at or past
// horizon contribute nothing to the MA terms.
func (m *Model) predictOne(y, residuals []float64, t, horizon int) float64 {
	pred := m.Intercept
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
	}
	for i := 0; i < m.Order.SP; i++ {
		if lag := (i + 1) * m.Order.Period; t-lag >= 0 {
			pred += m.SARCoeffs[i] * (y[t-lag] - m.Intercept)
		}
	}
	for i := 0; i < m.Order.Q && t-i-1 >= 0; i++ {
		if t-i-1 < horizon {
			pred += m.MACoeffs[i] * residuals[t-i-1]
		}
	}
	for i := 0; i < m.Order.SQ; i++ {
		if lag := (i + 1) * m.Order.Period; t-lag >= 0 && t-lag < horizon {
			pred += m.SMACoeffs[i] * residuals[t-lag]
		}
	}
	return pred
}

// calculateIC computes the Gaussian log-likelihood and the AIC, AICc, and
// BIC scores used for order selection.
func (m *Model) calculateIC() {
	n := float64(len(m.residuals))
	k := float64(m.Order.NumParams())

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if m.Variance > 0 {
		m.LogLik = -n/2*math.Log(2*math.Pi) - n/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		m.LogLik = math.Inf(-1)
	}

	m.AIC = -2*m.LogLik + 2*k
	if n-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(n-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
	m.BIC = -2*m.LogLik + k*math.Log(n)
}

// Valid reports whether the fit produced a usable likelihood. Selection
// discards candidates with non-finite scores.
func (m *Model) Valid() bool {
	return m.fitted && !math.IsInf(m.AIC, 0) && !math.IsNaN(m.AIC) && m.Variance > 0
}

// Forecast generates point forecasts with prediction intervals at the
// given confidence level. Forecasts are produced recursively on the
// differenced scale, with unknown future residuals taken as zero, then
// integrated back to the original scale. Interval width grows with the
// horizon when the model is integrated.
func (m *Model) Forecast(steps int, confidence float64) (point, lower, upper []float64, err error) {
	if !m.fitted {
		return nil, nil, nil, errors.New(errors.CodeModelFitFailed, "forecast requested from unfitted model")
	}
	if steps < 1 {
		return nil, nil, nil, errors.ValidationError("forecast horizon must be at least 1")
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	y := m.diffData.Values
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)
	extResiduals := make([]float64, n+steps)
	copy(extResiduals, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		extY[t] = m.predictOne(extY, extResiduals, t, n)
	}

	point = make([]float64, steps)
	copy(point, extY[n:])
	point = m.integrate(point)

	z := normalQuantile((1 + confidence) / 2)
	lower = make([]float64, steps)
	upper = make([]float64, steps)
	for h := 0; h < steps; h++ {
		se := math.Sqrt(m.Variance)
		if m.Order.D > 0 {
			se *= math.Sqrt(float64(h + 1))
		}
		if m.Order.SD > 0 && m.Order.Period > 0 {
			se *= math.Sqrt(float64(h/m.Order.Period + 1))
		}
		lower[h] = point[h] - z*se
		upper[h] = point[h] + z*se
	}

	return point, lower, upper, nil
}

// integrate undoes differencing in reverse order of application: seasonal
// integration first, then non-seasonal cumulative sums anchored on the
// last observed value.
func (m *Model) integrate(forecasts []float64) []float64 {
	d, sd, period := m.Order.D, m.Order.SD, m.Order.Period
	original := m.data.Values

	result := make([]float64, len(forecasts))
	copy(result, forecasts)

	nonSeasonal := original
	for i := 0; i < d; i++ {
		if len(nonSeasonal) <= 1 {
			break
		}
		next := make([]float64, len(nonSeasonal)-1)
		for j := 1; j < len(nonSeasonal); j++ {
			next[j-1] = nonSeasonal[j] - nonSeasonal[j-1]
		}
		nonSeasonal = next
	}

	if sd > 0 && period > 0 {
		nDiff := len(nonSeasonal)
		for i := 0; i < sd; i++ {
			for j := range result {
				if j < period {
					if idx := nDiff - period + j; idx >= 0 && idx < nDiff {
						result[j] += nonSeasonal[idx]
					}
				} else {
					result[j] += result[j-period]
				}
			}
		}
	}

	for i := 0; i < d; i++ {
		last := original[len(original)-1]
		for j := range result {
			if j == 0 {
				result[j] += last
			} else {
				result[j] += result[j-1]
			}
		}
	}

	return result
}

// Residuals returns a copy of the in-sample residuals on the differenced
// scale. Returns nil before Fit.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}

// FittedValues returns a copy of the one-step in-sample predictions on the
// differenced scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.fittedVals))
	copy(out, m.fittedVals)
	return out
}

// normalQuantile approximates the standard normal quantile function
// (Abramowitz and Stegun 26.2.23).
func normalQuantile(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	if p < 0.5 {
		return -normalQuantile(1 - p)
	}

	t := math.Sqrt(-2 * math.Log(1-p))
	c0, c1, c2 := 2.515517, 0.802853, 0.010328
	d1, d2, d3 := 1.432788, 0.189269, 0.001308
	return t - (c0+c1*t+c2*t*t)/(1+d1*t+d2*t*t+d3*t*t*t)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
