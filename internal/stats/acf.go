// Package stats implements the statistical diagnostics the pipeline relies
// on: autocorrelation summaries, the augmented unit-root test, and the
// Ljung-Box portmanteau test.
package stats

import "math"

// ACF calculates the sample autocorrelation function for lags 0..maxLag.
// Returns nil for degenerate input (constant or empty series).
func ACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		acf[k] = sum / variance
	}

	return acf
}

// PACF calculates the partial autocorrelation function for lags 0..maxLag
// using the Durbin-Levinson recursion.
func PACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 {
		return nil
	}

	acf := ACF(values, maxLag)
	if acf == nil {
		return nil
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1

	phi := make([][]float64, maxLag+1)
	for i := range phi {
		phi[i] = make([]float64, maxLag+1)
	}

	phi[1][1] = acf[1]
	pacf[1] = acf[1]

	for k := 2; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
			den -= phi[k-1][j] * acf[j]
		}
		if den == 0 {
			pacf[k] = 0
			continue
		}
		phi[k][k] = num / den
		pacf[k] = phi[k][k]
		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
	}

	return pacf
}

// CorrelogramResult holds ACF or PACF values with their shared 95%
// confidence bound (±1.96/√n).
type CorrelogramResult struct {
	Lags      []int     `json:"lags"`
	Values    []float64 `json:"values"`
	ConfBound float64   `json:"conf_bound"`
}

// Correlogram computes ACF and PACF summaries with confidence bounds for
// diagnostic inspection.
func Correlogram(values []float64, maxLag int) (acf, pacf *CorrelogramResult) {
	bound := 1.96 / math.Sqrt(float64(len(values)))

	if a := ACF(values, maxLag); a != nil {
		acf = &CorrelogramResult{Lags: lagRange(len(a)), Values: a, ConfBound: bound}
	}
	if p := PACF(values, maxLag); p != nil {
		pacf = &CorrelogramResult{Lags: lagRange(len(p)), Values: p, ConfBound: bound}
	}
	return acf, pacf
}

// SignificantLags returns the lags (excluding 0) whose values exceed the
// confidence bound in magnitude.
func (r *CorrelogramResult) SignificantLags() []int {
	var significant []int
	for i := 1; i < len(r.Values); i++ {
		if math.Abs(r.Values[i]) > r.ConfBound {
			significant = append(significant, i)
		}
	}
	return significant
}

func lagRange(n int) []int {
	lags := make([]int, n)
	for i := range lags {
		lags[i] = i
	}
	return lags
}
