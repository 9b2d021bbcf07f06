package synth

// Event is one timed note transition in an offline render.
type Event struct {
	Pos      int // sample position
	On       bool
	Note     int
	Velocity int
}

// RenderNote renders a single note, holding it for noteOnFraction of the
// buffer and releasing it for the remainder. State is reset first, so
// identical inputs give identical audio.
func (s *Synth) RenderNote(note, velocity, durationSamples int, noteOnFraction float64) []float64 {
	s.Reset()

	buf := make([]float32, durationSamples)
	noteOff := int(float64(durationSamples) * noteOnFraction)
	if noteOff < 0 {
		noteOff = 0
	}
	if noteOff > durationSamples {
		noteOff = durationSamples
	}

	s.NoteOn(note, velocity)
	if noteOff > 0 {
		s.Render(buf[:noteOff])
	}
	s.NoteOff(note)
	if noteOff < durationSamples {
		s.Render(buf[noteOff:])
	}

	return toFloat64(buf)
}

// RenderSequence renders timed note events into a buffer of totalSamples.
// Events must be ordered by position; positions beyond the buffer are
// dropped.
func (s *Synth) RenderSequence(events []Event, totalSamples int) []float64 {
	s.Reset()

	buf := make([]float32, totalSamples)
	current := 0
	idx := 0

	for current < totalSamples {
		next := totalSamples
		if idx < len(events) && events[idx].Pos < next {
			next = events[idx].Pos
		}
		if next > current {
			s.Render(buf[current:next])
			current = next
		}
		for idx < len(events) && events[idx].Pos <= current {
			ev := events[idx]
			if ev.On {
				s.NoteOn(ev.Note, ev.Velocity)
			} else {
				s.NoteOff(ev.Note)
			}
			idx++
		}
	}

	return toFloat64(buf)
}

// PhraseDuration is the length of the standard audition phrase in
// seconds.
const PhraseDuration = 2.0

// Phrase returns the standard audition sequence used for feature
// extraction: C4, E4, G4, C5 at varied velocities across totalSamples.
func Phrase(totalSamples int) []Event {
	noteDur := totalSamples / 4
	return []Event{
		{Pos: 0, On: true, Note: 60, Velocity: 110},
		{Pos: noteDur - 100, On: false, Note: 60},
		{Pos: noteDur, On: true, Note: 64, Velocity: 80},
		{Pos: 2*noteDur - 100, On: false, Note: 64},
		{Pos: 2 * noteDur, On: true, Note: 67, Velocity: 50},
		{Pos: 3*noteDur - 100, On: false, Note: 67},
		{Pos: 3 * noteDur, On: true, Note: 72, Velocity: 100},
		{Pos: totalSamples - 200, On: false, Note: 72},
	}
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
