// Package metrics accumulates running error statistics for evaluating
// predictions against recorded congestion.
package metrics

import "math"

// Welford holds running mean and variance using Welford's online algorithm
type Welford struct {
	Count int     // number of observations
	Mean  float64 // running mean
	M2    float64 // sum of squared differences from the mean
}

// Add records one observation
func (w *Welford) Add(v float64) {
	w.Count++
	delta := v - w.Mean
	w.Mean += delta / float64(w.Count)
	w.M2 += delta * (v - w.Mean)
}

// StdDev returns the population standard deviation, or 0 with fewer than 2
// observations
func (w *Welford) StdDev() float64 {
	if w.Count < 2 {
		return 0
	}
	return math.Sqrt(w.M2 / float64(w.Count))
}
