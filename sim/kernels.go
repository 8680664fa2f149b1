package sim

import "math"

// kernels holds the 2D smoothing kernels for one interaction radius.
// Every kernel is zero at and beyond the radius.
type kernels struct {
	h float64

	spikyPow2      float64 // density
	spikyPow3      float64 // near density
	spikyPow2Deriv float64
	spikyPow3Deriv float64
	poly6          float64 // viscosity
}

func newKernels(h float64) kernels {
	return kernels{
		h:              h,
		spikyPow2:      6 / (math.Pi * math.Pow(h, 4)),
		spikyPow3:      10 / (math.Pi * math.Pow(h, 5)),
		spikyPow2Deriv: 12 / (math.Pi * math.Pow(h, 4)),
		spikyPow3Deriv: 30 / (math.Pi * math.Pow(h, 5)),
		poly6:          4 / (math.Pi * math.Pow(h, 8)),
	}
}

func (k kernels) density(d float64) float64 {
	if d >= k.h {
		return 0
	}
	v := k.h - d
	return v * v * k.spikyPow2
}

func (k kernels) nearDensity(d float64) float64 {
	if d >= k.h {
		return 0
	}
	v := k.h - d
	return v * v * v * k.spikyPow3
}

// densityDeriv is dW/dd for the density kernel (negative inside the radius).
func (k kernels) densityDeriv(d float64) float64 {
	if d >= k.h {
		return 0
	}
	return -(k.h - d) * k.spikyPow2Deriv
}

func (k kernels) nearDensityDeriv(d float64) float64 {
	if d >= k.h {
		return 0
	}
	v := k.h - d
	return -v * v * k.spikyPow3Deriv
}

func (k kernels) viscosity(d float64) float64 {
	if d >= k.h {
		return 0
	}
	v := k.h*k.h - d*d
	return v * v * v * k.poly6
}
