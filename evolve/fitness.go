package evolve

import (
	"math/rand"
	"sync"
)

// Feedback is a single binary user rating for a genome.
type Feedback struct {
	// Rating is 1.0 for like, 0.0 for dislike.
	Rating float64
	// PlayTimeSeconds is how long the preset was auditioned.
	PlayTimeSeconds float64
	// SampleWeight scales the training step for this sample. Zero means
	// "derive from play time".
	SampleWeight float64
}

// NewFeedback builds a feedback value whose sample weight reflects the
// play duration: quick judgements count less than considered ones.
func NewFeedback(rating, playTimeSeconds float64) Feedback {
	weight := 0.5 + playTimeSeconds/10.0
	if weight > 1.5 {
		weight = 1.5
	}
	return Feedback{Rating: rating, PlayTimeSeconds: playTimeSeconds, SampleWeight: weight}
}

// Weight returns the effective sample weight, defaulting from play time
// when unset.
func (f Feedback) Weight() float64 {
	if f.SampleWeight > 0 {
		return f.SampleWeight
	}
	return NewFeedback(f.Rating, f.PlayTimeSeconds).SampleWeight
}

// FitnessModel scores genomes and consumes user feedback. Evaluate is
// called from the engine's search goroutine; SendFeedback from the
// consumer and must return without blocking on training.
type FitnessModel interface {
	Evaluate(genome []float64) float64
	SendFeedback(genome []float64, fb Feedback)
}

// ConstantModel returns a fixed fitness for every genome. Useful for tests
// and for running the engine in pure-exploration mode.
type ConstantModel struct {
	Value float64
}

func (m ConstantModel) Evaluate([]float64) float64 { return m.Value }

func (ConstantModel) SendFeedback([]float64, Feedback) {}

// RandomModel returns uniform random fitness values from a seeded source,
// driving the engine to explore the space without any preference signal.
type RandomModel struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomModel creates a RandomModel with the given seed.
func NewRandomModel(seed int64) *RandomModel {
	return &RandomModel{rng: rand.New(rand.NewSource(seed))}
}

func (m *RandomModel) Evaluate([]float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}

func (m *RandomModel) SendFeedback([]float64, Feedback) {}
