package evolve

import "strings"

// InputMode selects which feature space the fitness model scores.
type InputMode int

const (
	// InputGenome scores raw genome parameters.
	InputGenome InputMode = iota
	// InputAudio scores normalized audio features.
	InputAudio
)

// Config holds the toggleable search flags. It is a value type: the engine
// takes an atomic snapshot via SetConfig, so a Config is never mutated
// while the loop reads it.
type Config struct {
	// Adaptive exploration: epsilon decays from EpsilonMax to EpsilonMin
	// once per generation.
	AdaptiveExploration bool
	EpsilonMax          float64
	EpsilonMin          float64
	EpsilonDecay        float64

	// Novelty bonus: reward individuals far from the current population.
	NoveltyBonus bool
	NoveltyK     int

	// Multi-objective: blend model fitness with novelty.
	MultiObjective bool
	NoveltyWeight  float64

	InputMode InputMode
}

// DefaultConfig returns the baseline search configuration.
func DefaultConfig() Config {
	return Config{
		AdaptiveExploration: false,
		EpsilonMax:          0.5,
		EpsilonMin:          0.05,
		EpsilonDecay:        0.99,
		NoveltyBonus:        false,
		NoveltyK:            5,
		MultiObjective:      false,
		NoveltyWeight:       0.3,
		InputMode:           InputGenome,
	}
}

// Flags returns a compact label for the active configuration, used in the
// dataset CSV ("baseline", "adaptive+novelty", "audio", ...).
func (c Config) Flags() string {
	var parts []string
	if c.InputMode == InputAudio {
		parts = append(parts, "audio")
	}
	if c.AdaptiveExploration {
		parts = append(parts, "adaptive")
	}
	if c.NoveltyBonus {
		parts = append(parts, "novelty")
	}
	if c.MultiObjective {
		parts = append(parts, "multiobjective")
	}
	if len(parts) == 0 {
		return "baseline"
	}
	return strings.Join(parts, "+")
}
