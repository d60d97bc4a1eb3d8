package distributions

import (
	"math"
	"testing"
)

func TestUniformSumCDF_Bounds(t *testing.T) {
	tests := []struct {
		name string
		n    int
		x    float64
		want float64
	}{
		{"BelowZero", 3, -1, 0},
		{"AtZero", 3, 0, 0},
		{"AtN", 4, 4, 1},
		{"AboveN", 2, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UniformSumCDF(tt.n, tt.x); got != tt.want {
				t.Errorf("UniformSumCDF(%d, %v) = %v, want %v", tt.n, tt.x, got, tt.want)
			}
		})
	}
}

func TestUniformSumCDF_Midpoint(t *testing.T) {
	for n := 1; n <= 4; n++ {
		got := UniformSumCDF(n, float64(n)/2)
		if math.Abs(got-0.5) > 1e-9 {
			t.Errorf("UniformSumCDF(%d, %v) = %v, want 0.5 within 1e-9", n, float64(n)/2, got)
		}
	}
}

func TestUniformSumCDF_Monotone(t *testing.T) {
	for n := 1; n <= 4; n++ {
		prev := -1.0
		for i := 0; i <= 200; i++ {
			x := float64(n) * float64(i) / 200
			got := UniformSumCDF(n, x)
			if got < prev-1e-12 {
				t.Fatalf("UniformSumCDF(%d, %v) = %v is less than previous value %v", n, x, got, prev)
			}
			prev = got
		}
	}
}

func TestUniformSumCDF_SingleUniform(t *testing.T) {
	// n=1 is just the CDF of a single uniform[0,1]: F(x) = x.
	for _, x := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
		got := UniformSumCDF(1, x)
		if math.Abs(got-x) > 1e-9 {
			t.Errorf("UniformSumCDF(1, %v) = %v, want %v", x, got, x)
		}
	}
}
