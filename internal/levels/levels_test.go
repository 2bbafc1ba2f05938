package levels

import (
	"math"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		pct      float64
		expected int
	}{
		{0, 1},
		{10, 1},
		{32, 1},
		{32.01, 2},
		{50, 2},
		{99.9, 4},
		{100, 4},
		{150, 6},
		{225, 9},
		{226, 10},
		{280, 10},
		{1e6, 10},
		{math.Inf(1), 10},
		{-5, 1},
	}

	for _, tc := range tests {
		got := Lookup(tc.pct)
		if got.Rank != tc.expected {
			t.Errorf("Lookup(%v).Rank = %d, expected %d", tc.pct, got.Rank, tc.expected)
		}
	}
}

func TestTableOrdered(t *testing.T) {
	all := All()
	if len(all) != 10 {
		t.Fatalf("expected 10 tiers, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Threshold <= all[i-1].Threshold {
			t.Errorf("tier %d threshold %v not ascending", i, all[i].Threshold)
		}
		if all[i].Rank != i+1 {
			t.Errorf("tier %d has rank %d", i, all[i].Rank)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].Label = "mutated"
	if Lookup(0).Label == "mutated" {
		t.Error("All() must not expose the internal table")
	}
}
