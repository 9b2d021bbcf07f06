// Package synth is a headless subtractive synthesizer: two band-limited
// oscillators per voice, a state variable filter, ADSR envelopes, and an
// LFO, rendered offline from a normalized parameter genome.
package synth

import "math"

const (
	pi       = float32(3.1415926535897932)
	twoPi    = float32(6.2831853071795864)
	piOver4  = float32(0.7853981633974483)
	maxVoice = 8
)

// oscillator generates a band-limited impulse train via a recursive
// sinusoid, numerically stable across the full pitch range. Two of these
// subtracted from each other form the sawtooth pair of a voice.
type oscillator struct {
	period     float32 // cycle length in samples
	amplitude  float32
	modulation float32

	phase    float32
	phaseMax float32
	inc      float32
	sin0     float32
	sin1     float32
	dsin     float32
	dc       float32
}

func (o *oscillator) reset() {
	o.inc = 0
	o.phase = 0
	o.sin0 = 0
	o.sin1 = 0
	o.dsin = 0
	o.dc = 0
}

func (o *oscillator) nextSample() float32 {
	var output float32
	o.phase += o.inc

	if o.phase <= piOver4 {
		// Startup region: reinitialize the recursion for the current
		// period and modulation.
		halfPeriod := o.period / 2.0 * o.modulation
		o.phaseMax = float32(math.Floor(float64(0.5+halfPeriod))) - 0.5
		o.dc = 0.5 * o.amplitude / o.phaseMax
		o.phaseMax *= pi

		o.inc = o.phaseMax / halfPeriod
		o.phase = -o.phase

		o.sin0 = o.amplitude * float32(math.Sin(float64(o.phase)))
		o.sin1 = o.amplitude * float32(math.Sin(float64(o.phase-o.inc)))
		o.dsin = 2.0 * float32(math.Cos(float64(o.inc)))

		if o.phase*o.phase > 1e-9 {
			output = o.sin0 / o.phase
		} else {
			output = o.amplitude
		}
	} else {
		if o.phase > o.phaseMax {
			o.phase = o.phaseMax + o.phaseMax - o.phase
			o.inc = -o.inc
		}
		sinp := o.dsin*o.sin0 - o.sin1
		o.sin1 = o.sin0
		o.sin0 = sinp
		output = sinp / o.phase
	}

	return output - o.dc
}

// squareWave phase-locks this oscillator against another so their
// difference yields a square wave with the given period.
func (o *oscillator) squareWave(other *oscillator, newPeriod float32) {
	o.reset()

	switch {
	case other.inc > 0:
		o.phase = other.phaseMax + other.phaseMax - other.phase
		o.inc = -other.inc
	case other.inc < 0:
		o.phase = other.phase
		o.inc = other.inc
	default:
		o.phase = -pi
		o.inc = pi
	}

	o.phase += pi * newPeriod / 2.0
	o.phaseMax = o.phase
}
