package metrics

import (
	"math"
	"testing"
)

func TestWelford(t *testing.T) {
	var w Welford
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		w.Add(v)
	}

	if w.Count != 8 {
		t.Errorf("Count = %d, want 8", w.Count)
	}
	if math.Abs(w.Mean-5) > 1e-9 {
		t.Errorf("Mean = %v, want 5", w.Mean)
	}
	if math.Abs(w.StdDev()-2) > 1e-9 {
		t.Errorf("StdDev = %v, want 2", w.StdDev())
	}
}

func TestWelford_SingleObservation(t *testing.T) {
	var w Welford
	w.Add(42)
	if w.StdDev() != 0 {
		t.Errorf("StdDev with one observation = %v, want 0", w.StdDev())
	}
}

func TestErrorStats(t *testing.T) {
	tests := []struct {
		name     string
		pairs    [][2]float64 // predicted, actual
		wantRMSE float64
		wantMAPE float64
	}{
		{
			name:     "empty",
			wantRMSE: 0,
			wantMAPE: 0,
		},
		{
			name:     "exact",
			pairs:    [][2]float64{{100, 100}, {50, 50}},
			wantRMSE: 0,
			wantMAPE: 0,
		},
		{
			name:     "mixed",
			pairs:    [][2]float64{{90, 100}, {60, 50}},
			wantRMSE: 10,
			wantMAPE: 15, // (10% + 20%) / 2
		},
		{
			name:     "zero actual excluded from MAPE",
			pairs:    [][2]float64{{110, 100}, {3, 0}},
			wantRMSE: math.Sqrt((100.0 + 9) / 2),
			wantMAPE: 10,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var e ErrorStats
			for _, p := range tc.pairs {
				e.Observe(p[0], p[1])
			}
			if e.Count() != len(tc.pairs) {
				t.Errorf("Count = %d, want %d", e.Count(), len(tc.pairs))
			}
			if math.Abs(e.RMSE()-tc.wantRMSE) > 1e-9 {
				t.Errorf("RMSE = %v, want %v", e.RMSE(), tc.wantRMSE)
			}
			if math.Abs(e.MAPE()-tc.wantMAPE) > 1e-9 {
				t.Errorf("MAPE = %v, want %v", e.MAPE(), tc.wantMAPE)
			}
		})
	}
}

func TestErrorStats_Bias(t *testing.T) {
	var e ErrorStats
	e.Observe(80, 100)
	e.Observe(90, 100)

	s := e.Summary()
	if s.Bias != 15 {
		t.Errorf("Bias = %v, want 15", s.Bias)
	}
	if s.ResidualStdDev != 5 {
		t.Errorf("ResidualStdDev = %v, want 5", s.ResidualStdDev)
	}
}
