package forecast

import (
	"math"

	"shockcast/internal/errors"
	"shockcast/internal/timeseries"
)

// Comparison holds the forecast total against the observed total over the
// same months, with the absolute and relative deviation between them.
type Comparison struct {
	ForecastTotal float64 `json:"forecast_total"`
	ActualTotal   float64 `json:"actual_total"`
	// Deviation is |actual - forecast|.
	Deviation float64 `json:"deviation"`
	// Ratio is actual over forecast; above 1 means the withheld window ran
	// hotter than the model projected.
	Ratio float64 `json:"ratio"`
	// Months is the number of months both sides covered.
	Months int `json:"months"`
}

// Compare sums the forecast points and the actual counts over their shared
// months. The actual series must start at the first forecast month; a
// shorter actual window truncates the comparison to the overlap.
func Compare(result *Result, actual *timeseries.Series) (*Comparison, error) {
	if result == nil || len(result.Points) == 0 {
		return nil, errors.ValidationError("comparison requires a non-empty forecast")
	}
	if actual == nil || actual.Len() == 0 {
		return nil, errors.ValidationError("comparison requires a non-empty actual series")
	}
	if actual.Start.Key() != result.Points[0].Month {
		return nil, errors.ValidationError("actual series does not align with the forecast window")
	}

	months := len(result.Points)
	if actual.Len() < months {
		months = actual.Len()
	}

	forecastTotal := 0.0
	actualTotal := 0.0
	for h := 0; h < months; h++ {
		forecastTotal += result.Points[h].Forecast
		actualTotal += actual.Values[h]
	}

	c := &Comparison{
		ForecastTotal: forecastTotal,
		ActualTotal:   actualTotal,
		Deviation:     math.Abs(actualTotal - forecastTotal),
		Months:        months,
	}
	if forecastTotal != 0 {
		c.Ratio = actualTotal / forecastTotal
	}
	return c, nil
}
