package synth

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// svFilter is a state variable lowpass using trapezoidal integration
// (TPT). Coefficients recompute on every LFO tick, state advances per
// sample.
type svFilter struct {
	sampleRate float32

	g, k       float32
	a1, a2, a3 float32

	ic1eq float32
	ic2eq float32
}

func (f *svFilter) updateCoefficients(cutoff, q float32) {
	f.g = float32(math.Tan(float64(pi * cutoff / f.sampleRate)))
	f.k = 1.0 / q

	f.a1 = 1.0 / (1.0 + f.g*(f.g+f.k))
	f.a2 = f.g * f.a1
	f.a3 = f.g * f.a2
}

func (f *svFilter) reset() {
	f.g = 0
	f.k = 0
	f.a1 = 0
	f.a2 = 0
	f.a3 = 0
	f.ic1eq = 0
	f.ic2eq = 0
}

func (f *svFilter) render(x float32) float32 {
	v3 := x - f.ic2eq
	v1 := f.a1*f.ic1eq + f.a2*v3
	v2 := f.ic2eq + f.a2*f.ic1eq + f.a3*v3

	f.ic1eq = float32(dspcore.FlushDenormals(float64(2.0*v1 - f.ic1eq)))
	f.ic2eq = float32(dspcore.FlushDenormals(float64(2.0*v2 - f.ic2eq)))

	return v2
}
