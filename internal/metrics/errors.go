package metrics

import "math"

// ErrorStats accumulates prediction error against actual values
type ErrorStats struct {
	residual   Welford // actual - predicted
	sumSquared float64
	absPercent Welford // |actual - predicted| / actual * 100, actual > 0 only
}

// Observe records one prediction/actual pair
func (e *ErrorStats) Observe(predicted, actual float64) {
	diff := actual - predicted
	e.residual.Add(diff)
	e.sumSquared += diff * diff
	if actual > 0 {
		e.absPercent.Add(math.Abs(diff) / actual * 100)
	}
}

// Count returns the number of observations
func (e *ErrorStats) Count() int {
	return e.residual.Count
}

// RMSE returns the root mean squared error
func (e *ErrorStats) RMSE() float64 {
	if e.residual.Count == 0 {
		return 0
	}
	return math.Sqrt(e.sumSquared / float64(e.residual.Count))
}

// MAPE returns the mean absolute percentage error over observations with a
// positive actual value
func (e *ErrorStats) MAPE() float64 {
	return e.absPercent.Mean
}

// Bias returns the mean residual; positive means predictions run low
func (e *ErrorStats) Bias() float64 {
	return e.residual.Mean
}

// ResidualStdDev returns the standard deviation of residuals
func (e *ErrorStats) ResidualStdDev() float64 {
	return e.residual.StdDev()
}

// Summary is a serializable snapshot of ErrorStats
type Summary struct {
	Count          int     `json:"count"`
	RMSE           float64 `json:"rmse"`
	MAPE           float64 `json:"mape"`
	Bias           float64 `json:"bias"`
	ResidualStdDev float64 `json:"residualStdDev"`
}

// Summary returns the current statistics
func (e *ErrorStats) Summary() Summary {
	return Summary{
		Count:          e.Count(),
		RMSE:           e.RMSE(),
		MAPE:           e.MAPE(),
		Bias:           e.Bias(),
		ResidualStdDev: e.ResidualStdDev(),
	}
}
