package forecast

import (
	"shockcast/internal/errors"
	"shockcast/internal/sarima"
	"shockcast/internal/timeseries"
)

// Point is one forecast month: the point estimate with its prediction
// interval.
type Point struct {
	Month    string  `json:"month"`
	Forecast float64 `json:"forecast"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// Result is the full projection over the withheld window. Residuals are on
// the differenced scale and feed the portmanteau checks; Quality is
// attached by ValidateResiduals and never blocks the run.
type Result struct {
	Order      sarima.Order    `json:"order"`
	Confidence float64         `json:"confidence"`
	Points     []Point         `json:"points"`
	Residuals  []float64       `json:"-"`
	Quality    *ResidualReport `json:"quality,omitempty"`
}

// Total sums the point estimates over the horizon.
func (r *Result) Total() float64 {
	total := 0.0
	for _, p := range r.Points {
		total += p.Forecast
	}
	return total
}

// Forecast projects the fitted model over the horizon starting at the
// month after the historical window. Pure with respect to the model.
func Forecast(model *sarima.Model, start timeseries.Month, horizon int, confidence float64) (*Result, error) {
	if model == nil {
		return nil, errors.New(errors.CodeModelFitFailed, "forecast requested without a fitted model")
	}

	point, lower, upper, err := model.Forecast(horizon, confidence)
	if err != nil {
		return nil, err
	}

	points := make([]Point, horizon)
	for h := 0; h < horizon; h++ {
		points[h] = Point{
			Month:    start.AddMonths(h).Key(),
			Forecast: point[h],
			Lower:    lower[h],
			Upper:    upper[h],
		}
	}

	return &Result{
		Order:      model.Order,
		Confidence: confidence,
		Points:     points,
		Residuals:  model.Residuals(),
	}, nil
}
