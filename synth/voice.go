package synth

import (
	"github.com/cwbudde/algo-approx"
)

// voice is one polyphonic note: two detuned oscillators feeding a low
// pass filter under amplitude and filter envelopes.
type voice struct {
	note int

	osc1   oscillator
	osc2   oscillator
	saw    float32
	period float32

	env       envelope
	panLeft   float32
	panRight  float32
	target    float32
	glideRate float32

	filter         svFilter
	cutoff         float32
	filterMod      float32
	filterQ        float32
	pitchBend      float32
	filterEnv      envelope
	filterEnvDepth float32
}

func (v *voice) reset() {
	v.note = 0
	v.saw = 0

	v.osc1.reset()
	v.osc2.reset()
	v.env.reset()

	v.panLeft = 0.707
	v.panRight = 0.707

	v.filter.reset()
	v.filterEnv.reset()
}

func (v *voice) render(input float32) float32 {
	sample1 := v.osc1.nextSample()
	sample2 := v.osc2.nextSample()
	// Leaky integration of the impulse-train difference yields the saw.
	v.saw = v.saw*0.997 + sample1 - sample2

	output := v.saw + input
	output = v.filter.render(output)

	return output * v.env.nextValue()
}

func (v *voice) release() {
	v.env.release()
	v.filterEnv.release()
}

// updatePanning spreads pitch across the stereo field, two octaves
// around middle C.
func (v *voice) updatePanning() {
	panning := (float32(v.note) - 60.0) / 24.0
	if panning < -1.0 {
		panning = -1.0
	} else if panning > 1.0 {
		panning = 1.0
	}
	v.panLeft = sin32(piOver4 * (1.0 - panning))
	v.panRight = sin32(piOver4 * (1.0 + panning))
}

// updateLFO advances glide and the filter envelope, then retunes the
// filter for the modulated cutoff.
func (v *voice) updateLFO() {
	v.period += v.glideRate * (v.target - v.period)

	fenv := v.filterEnv.nextValue()

	modulatedCutoff := v.cutoff * approx.FastExp(v.filterMod+v.filterEnvDepth*fenv) / v.pitchBend
	if modulatedCutoff < 30.0 {
		modulatedCutoff = 30.0
	} else if modulatedCutoff > 20000.0 {
		modulatedCutoff = 20000.0
	}

	v.filter.updateCoefficients(modulatedCutoff, v.filterQ)
}
