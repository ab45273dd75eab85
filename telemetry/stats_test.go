package telemetry

import (
	"math"
	"testing"
)

func TestComputeDistStats(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		mean   float64
		std    float64
		p50    float64
		p90    float64
	}{
		{"empty", nil, 0, 0, 0, 0},
		{"single", []float64{3}, 3, 0, 3, 3},
		{"small", []float64{1, 2, 3, 4}, 2.5, 1.29099, 2, 4},
		{"unsorted input", []float64{4, 1, 3, 2}, 2.5, 1.29099, 2, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mean, std, p50, p90 := ComputeDistStats(tc.values)
			checks := []struct {
				name string
				got  float64
				want float64
			}{
				{"mean", mean, tc.mean},
				{"std", std, tc.std},
				{"p50", p50, tc.p50},
				{"p90", p90, tc.p90},
			}
			for _, c := range checks {
				if math.Abs(c.got-c.want) > 1e-4 {
					t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
				}
			}
		})
	}
}

func TestComputeDistStatsDoesNotModifyInput(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	ComputeDistStats(values)
	want := []float64{4, 1, 3, 2}
	for i := range values {
		if values[i] != want[i] {
			t.Fatalf("input modified: %v", values)
		}
	}
}
