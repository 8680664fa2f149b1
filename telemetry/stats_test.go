package telemetry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestComputeDistribution(t *testing.T) {
	tests := []struct {
		name          string
		values        []float64
		mean          float64
		p10, p50, p90 float64
	}{
		{"empty", nil, 0, 0, 0, 0},
		{"single", []float64{5}, 5, 5, 5, 5},
		{"one to ten", []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 5.5, 1, 5, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ComputeDistribution(tt.values)
			if math.Abs(d.Mean-tt.mean) > 1e-9 {
				t.Errorf("Mean = %v, want %v", d.Mean, tt.mean)
			}
			if d.P10 != tt.p10 || d.P50 != tt.p50 || d.P90 != tt.p90 {
				t.Errorf("percentiles = %v/%v/%v, want %v/%v/%v", d.P10, d.P50, d.P90, tt.p10, tt.p50, tt.p90)
			}
		})
	}
}

func TestComputeDistributionDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	ComputeDistribution(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input reordered to %v", values)
	}
}

func TestComputeDistributionStd(t *testing.T) {
	d := ComputeDistribution([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	// Sample (n-1) standard deviation
	if math.Abs(d.Std-2.138) > 0.001 {
		t.Errorf("Std = %v, want ~2.138", d.Std)
	}
}

func TestComputeMotion(t *testing.T) {
	bounds := r2.Box{Min: r2.Vec{X: -1, Y: -1}, Max: r2.Vec{X: 1, Y: 1}}
	pos := []r2.Vec{{}, {X: 0.5}, {X: 2}}
	vel := []r2.Vec{{X: 3, Y: 4}, {X: -3}, {}}

	m := ComputeMotion(pos, vel, bounds)

	if math.Abs(m.MaxSpeed-5) > 1e-12 {
		t.Errorf("MaxSpeed = %v, want 5", m.MaxSpeed)
	}
	if math.Abs(m.MeanSpeed-8.0/3) > 1e-12 {
		t.Errorf("MeanSpeed = %v, want 8/3", m.MeanSpeed)
	}
	if math.Abs(m.KineticEnergy-17) > 1e-12 {
		t.Errorf("KineticEnergy = %v, want 17", m.KineticEnergy)
	}
	if m.Momentum != (r2.Vec{X: 0, Y: 4}) {
		t.Errorf("Momentum = %v, want (0, 4)", m.Momentum)
	}
	if m.OutOfBounds != 1 {
		t.Errorf("OutOfBounds = %d, want 1", m.OutOfBounds)
	}

	if empty := ComputeMotion(nil, nil, bounds); empty != (MotionStats{}) {
		t.Errorf("empty ComputeMotion = %+v", empty)
	}
}

func TestFinite(t *testing.T) {
	if finite(math.NaN()) != -1 || finite(math.Inf(1)) != -1 || finite(2) != 2 {
		t.Error("finite did not mask non-finite values")
	}
}
