package synth

import "math"

func sin32(x float32) float32 {
	return float32(math.Sin(float64(x)))
}

func exp32(x float32) float32 {
	return float32(math.Exp(float64(x)))
}

func float32pow(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}
