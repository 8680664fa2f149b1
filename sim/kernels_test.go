package sim

import (
	"math"
	"testing"
)

// Every kernel integrates to 1 over its disc.
func TestKernelNormalization(t *testing.T) {
	k := newKernels(0.7)

	tests := []struct {
		name string
		w    func(float64) float64
	}{
		{"density", k.density},
		{"near density", k.nearDensity},
		{"viscosity", k.viscosity},
	}

	const steps = 20000
	dr := k.h / steps
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sum float64
			for i := 0; i < steps; i++ {
				r := (float64(i) + 0.5) * dr
				sum += tt.w(r) * 2 * math.Pi * r * dr
			}
			if math.Abs(sum-1) > 1e-6 {
				t.Errorf("integral = %v, want 1", sum)
			}
		})
	}
}

func TestKernelSupport(t *testing.T) {
	k := newKernels(1)
	for _, d := range []float64{1, 1.5, 10} {
		if k.density(d) != 0 || k.nearDensity(d) != 0 || k.viscosity(d) != 0 ||
			k.densityDeriv(d) != 0 || k.nearDensityDeriv(d) != 0 {
			t.Errorf("kernels non-zero at d=%v", d)
		}
	}
}

// The derivatives match a central difference of their kernels.
func TestKernelDerivatives(t *testing.T) {
	k := newKernels(0.5)
	const eps = 1e-6
	for _, d := range []float64{0.05, 0.2, 0.45} {
		num := (k.density(d+eps) - k.density(d-eps)) / (2 * eps)
		if math.Abs(num-k.densityDeriv(d)) > 1e-4*math.Abs(num) {
			t.Errorf("densityDeriv(%v) = %v, numeric %v", d, k.densityDeriv(d), num)
		}
		num = (k.nearDensity(d+eps) - k.nearDensity(d-eps)) / (2 * eps)
		if math.Abs(num-k.nearDensityDeriv(d)) > 1e-4*math.Abs(num) {
			t.Errorf("nearDensityDeriv(%v) = %v, numeric %v", d, k.nearDensityDeriv(d), num)
		}
	}
}
