package synth

import (
	"fmt"

	"github.com/cwbudde/algo-evolve/evolve"
)

// Fixed settings for the controls the genome does not cover.
const (
	fixedOscTune        = float32(0.0)
	fixedGlideBend      = float32(0.0)
	fixedFilterVelocity = float32(50.0)
	fixedOutputGain     = float32(1.0) // 0 dB
)

func mapRange(v float64, lo, hi float32) float32 {
	return lo + float32(v)*(hi-lo)
}

// ApplyGenome maps a normalized 17-parameter genome onto the engine's
// internal coefficients. Envelope times use the classic exponential
// knob taper exp(5.5 - 0.075*value); the decay floor of 15 keeps every
// note from ringing forever.
func (s *Synth) ApplyGenome(genome []float64) error {
	if len(genome) != evolve.ParamCount {
		return fmt.Errorf("genome has %d parameters, want %d", len(genome), evolve.ParamCount)
	}

	inverseSampleRate := 1.0 / s.sampleRate
	inverseUpdateRate := inverseSampleRate * lfoMax

	oscMix := mapRange(genome[evolve.ParamOscMix], 0, 100)
	oscFine := mapRange(genome[evolve.ParamOscFine], -50, 50)
	filterFreq := mapRange(genome[evolve.ParamFilterFreq], 0, 100)
	filterReso := mapRange(genome[evolve.ParamFilterReso], 0, 100)
	filterEnv := mapRange(genome[evolve.ParamFilterEnv], -100, 100)
	filterLFO := mapRange(genome[evolve.ParamFilterLFO], 0, 100)
	filterAttack := mapRange(genome[evolve.ParamFilterAttack], 0, 100)
	filterDecay := mapRange(genome[evolve.ParamFilterDecay], 0, 100)
	filterSustain := mapRange(genome[evolve.ParamFilterSustain], 0, 100)
	filterRelease := mapRange(genome[evolve.ParamFilterRelease], 0, 100)
	envAttack := mapRange(genome[evolve.ParamEnvAttack], 0, 100)
	envDecay := mapRange(genome[evolve.ParamEnvDecay], 15, 100)
	envSustain := mapRange(genome[evolve.ParamEnvSustain], 0, 100)
	envRelease := mapRange(genome[evolve.ParamEnvRelease], 0, 100)
	lfoRate := float32(genome[evolve.ParamLFORate])
	vibratoValue := mapRange(genome[evolve.ParamVibrato], -100, 100)
	noiseValue := mapRange(genome[evolve.ParamNoise], 0, 100)

	s.envAttack = exp32(-inverseSampleRate * exp32(5.5-0.075*envAttack))
	s.envDecay = exp32(-inverseSampleRate * exp32(5.5-0.075*envDecay))
	s.envSustain = envSustain / 100.0
	if envRelease < 1.0 {
		s.envRelease = 0.75
	} else {
		s.envRelease = exp32(-inverseSampleRate * exp32(5.5-0.075*envRelease))
	}

	noiseMix := noiseValue / 100.0
	noiseMix *= noiseMix
	s.noiseMix = noiseMix * 0.06

	s.oscMix = oscMix / 100.0
	s.detune = float32pow(1.059463094359, -fixedOscTune-0.01*oscFine)

	tuneInSemi := float32(-36.3763)
	s.tune = s.sampleRate * exp32(0.05776226505*tuneInSemi)

	s.numVoices = maxVoice

	lfoNorm := filterLFO / 100.0
	s.filterLFODepth = 2.5 * lfoNorm * lfoNorm

	resoNorm := filterReso / 100.0
	s.filterQ = exp32(3.0 * resoNorm)

	s.volumeTrim = 0.0008 * (3.2 - s.oscMix - 25.0*s.noiseMix) * (1.5 - 0.5*resoNorm)
	s.outputLevel = fixedOutputGain
	s.velocitySensitivity = 0.0005 * fixedFilterVelocity

	rate := exp32(7.0*lfoRate - 4.0)
	s.lfoInc = rate * inverseUpdateRate * twoPi

	vib := vibratoValue / 200.0
	s.vibrato = 0.2 * vib * vib
	s.pwmDepth = s.vibrato
	if vib < 0 {
		s.vibrato = 0
	}

	s.glideMode = 0
	s.glideRate = 1.0
	s.glideBend = fixedGlideBend

	s.filterKeyTracking = 0.08*filterFreq - 1.5
	s.filterAttack = exp32(-inverseUpdateRate * exp32(5.5-0.075*filterAttack))
	s.filterDecay = exp32(-inverseUpdateRate * exp32(5.5-0.075*filterDecay))
	sustainNorm := filterSustain / 100.0
	s.filterSustain = sustainNorm * sustainNorm
	s.filterRelease = exp32(-inverseUpdateRate * exp32(5.5-0.075*filterRelease))
	s.filterEnvDepth = 0.06 * filterEnv

	return nil
}
