package synth

import "math"

const (
	// lfoMax is the number of samples per LFO tick; modulation updates
	// at this control rate, not per sample.
	lfoMax = 32

	// analog adds a slight per-voice detune, mimicking component drift.
	analog = float32(0.002)
)

// Synth is the polyphonic rendering engine. It is configured through
// ApplyGenome and driven by note events; all rendering is offline and
// mono. Not safe for concurrent use.
type Synth struct {
	sampleRate float32

	// Oscillator and tuning.
	oscMix   float32
	detune   float32
	tune     float32
	noiseMix float32

	// Amplitude envelope coefficients.
	envAttack  float32
	envDecay   float32
	envSustain float32
	envRelease float32

	numVoices   int
	volumeTrim  float32
	outputLevel float32

	velocitySensitivity float32

	lfoInc   float32
	vibrato  float32
	pwmDepth float32

	glideMode int
	glideRate float32
	glideBend float32

	filterKeyTracking float32
	filterQ           float32
	filterLFODepth    float32

	filterAttack   float32
	filterDecay    float32
	filterSustain  float32
	filterRelease  float32
	filterEnvDepth float32

	voices   [maxVoice]voice
	noiseGen noiseGenerator

	pitchBend float32
	lfoStep   int
	lfo       float32
	lastNote  int
	filterZip float32
}

// New creates an engine at the given sample rate with neutral settings;
// call ApplyGenome before rendering.
func New(sampleRate float64) *Synth {
	s := &Synth{sampleRate: float32(sampleRate)}
	for v := range s.voices {
		s.voices[v].filter.sampleRate = s.sampleRate
	}
	s.Reset()
	return s
}

// SampleRate returns the engine's sample rate.
func (s *Synth) SampleRate() float64 {
	return float64(s.sampleRate)
}

// SetSampleRate rebuilds the engine for a new rate.
func (s *Synth) SetSampleRate(rate float64) {
	s.sampleRate = float32(rate)
	for v := range s.voices {
		s.voices[v].filter.sampleRate = s.sampleRate
	}
	s.Reset()
}

// Reset silences all voices and clears modulation state, so consecutive
// renders of the same genome produce identical audio.
func (s *Synth) Reset() {
	for v := range s.voices {
		s.voices[v].reset()
	}
	s.noiseGen.reset()
	s.pitchBend = 1.0
	s.lfo = 0
	s.lfoStep = 0
	s.lastNote = 0
	s.filterZip = 0
}

// NoteOn starts a voice. Velocity 0 is treated as a note off.
func (s *Synth) NoteOn(note, velocity int) {
	if velocity <= 0 {
		s.NoteOff(note)
		return
	}
	s.startVoice(s.findFreeVoice(), note&0x7F, velocity&0x7F)
}

// NoteOff releases every voice holding the note.
func (s *Synth) NoteOff(note int) {
	for v := range s.voices {
		if s.voices[v].note == note {
			s.voices[v].release()
			s.voices[v].note = 0
		}
	}
}

// Render fills out with mono audio, advancing all active voices.
func (s *Synth) Render(out []float32) {
	for v := range s.voices {
		voice := &s.voices[v]
		if voice.env.isActive() {
			s.updatePeriod(voice)
			voice.glideRate = s.glideRate
			voice.filterQ = s.filterQ
			voice.pitchBend = s.pitchBend
			voice.filterEnvDepth = s.filterEnvDepth
		}
	}

	for i := range out {
		s.updateLFO()
		noise := s.noiseGen.nextValue() * s.noiseMix

		var left, right float32
		for v := range s.voices {
			voice := &s.voices[v]
			if voice.env.isActive() {
				output := voice.render(noise)
				left += output * voice.panLeft
				right += output * voice.panRight
			}
		}

		out[i] = 0.5 * (left + right) * s.outputLevel
	}

	for v := range s.voices {
		if !s.voices[v].env.isActive() {
			s.voices[v].env.reset()
			s.voices[v].filter.reset()
		}
	}
}

func (s *Synth) startVoice(v, note, velocity int) {
	period := s.calcPeriod(v, note)
	voice := &s.voices[v]
	voice.target = period

	noteDistance := 0
	if s.lastNote > 0 && s.glideMode == 2 {
		noteDistance = note - s.lastNote
	}
	voice.period = period * float32(math.Pow(1.0594631, float64(float32(noteDistance)-s.glideBend)))
	if voice.period < 6.0 {
		voice.period = 6.0
	}

	s.lastNote = note
	voice.note = note
	voice.updatePanning()

	voice.cutoff = s.sampleRate / (period * pi)
	voice.cutoff *= exp32(s.velocitySensitivity * float32(velocity-64))

	vel := 0.004*float32((velocity+64)*(velocity+64)) - 8.0
	voice.osc1.amplitude = s.volumeTrim * vel
	voice.osc2.amplitude = voice.osc1.amplitude * s.oscMix

	// With vibrato off, osc2 phase-locks into PWM duty.
	if s.vibrato == 0 && s.pwmDepth > 0 {
		voice.osc2.squareWave(&voice.osc1, voice.period)
	}

	voice.env.attackMultiplier = s.envAttack
	voice.env.decayMultiplier = s.envDecay
	voice.env.sustainLevel = s.envSustain
	voice.env.releaseMultiplier = s.envRelease
	voice.env.attack()

	voice.filterEnv.attackMultiplier = s.filterAttack
	voice.filterEnv.decayMultiplier = s.filterDecay
	voice.filterEnv.sustainLevel = s.filterSustain
	voice.filterEnv.releaseMultiplier = s.filterRelease
	voice.filterEnv.attack()
}

// calcPeriod doubles the period until both oscillators stay above the
// minimum stable cycle length.
func (s *Synth) calcPeriod(v, note int) float32 {
	period := s.tune * exp32(-0.05776226505*(float32(note)+analog*float32(v)))
	for period < 6.0 || period*s.detune < 6.0 {
		period += period
	}
	return period
}

// findFreeVoice steals the quietest voice that is not attacking.
func (s *Synth) findFreeVoice() int {
	v := 0
	lowest := float32(100.0)
	for i := range s.voices {
		if s.voices[i].env.level < lowest && !s.voices[i].env.isInAttack() {
			lowest = s.voices[i].env.level
			v = i
		}
	}
	return v
}

func (s *Synth) updatePeriod(voice *voice) {
	voice.osc1.period = voice.period * s.pitchBend
	voice.osc2.period = voice.osc1.period * s.detune
}

func (s *Synth) updateLFO() {
	s.lfoStep--
	if s.lfoStep > 0 {
		return
	}
	s.lfoStep = lfoMax
	s.lfo += s.lfoInc
	if s.lfo > pi {
		s.lfo -= twoPi
	}

	sine := sin32(s.lfo)
	vibratoMod := 1.0 + sine*s.vibrato
	pwm := 1.0 + sine*s.pwmDepth
	filterMod := s.filterKeyTracking + s.filterLFODepth*sine

	// One-pole smoothing keeps filter sweeps zipper-free.
	s.filterZip += 0.005 * (filterMod - s.filterZip)

	for v := range s.voices {
		voice := &s.voices[v]
		if voice.env.isActive() {
			voice.osc1.modulation = vibratoMod
			voice.osc2.modulation = pwm
			voice.filterMod = s.filterZip
			voice.updateLFO()
			s.updatePeriod(voice)
		}
	}
}
