package evolve

import "math/rand"

// TournamentSelection draws Size uniform indices with replacement and
// returns the index with the highest fitness seen. Ties break toward the
// earliest draw.
type TournamentSelection struct {
	Size int
}

// Select runs one tournament over the population and returns the winning
// index. The population must be non-empty.
func (s TournamentSelection) Select(p *Population, rng *rand.Rand) int {
	size := s.Size
	if size < 1 {
		size = 1
	}

	bestIndex := rng.Intn(p.Len())
	bestFitness := p.At(bestIndex).Fitness()
	for i := 1; i < size; i++ {
		idx := rng.Intn(p.Len())
		if f := p.At(idx).Fitness(); f > bestFitness {
			bestIndex = idx
			bestFitness = f
		}
	}
	return bestIndex
}

// UniformCrossover builds an offspring by an independent per-parameter coin
// flip between the two parents. The offspring starts unevaluated.
type UniformCrossover struct{}

// Cross combines two parents into a new individual.
func (UniformCrossover) Cross(a, b *Individual, rng *rand.Rand) *Individual {
	count := a.ParameterCount()
	child := NewIndividual(count)
	for i := 0; i < count; i++ {
		if rng.Intn(2) == 0 {
			child.params[i] = a.Parameter(i)
		} else {
			child.params[i] = b.Parameter(i)
		}
	}
	return child
}

// UniformMutation perturbs each parameter with probability Rate by a
// uniform offset in [-Strength, Strength], clamped to [0,1]. Fitness is
// invalidated only when at least one parameter actually changed.
type UniformMutation struct {
	Rate     float64
	Strength float64
}

// Mutate applies the operator in place.
func (m UniformMutation) Mutate(ind *Individual, rng *rand.Rand) {
	mutated := false
	for i := range ind.params {
		if rng.Float64() >= m.Rate {
			continue
		}
		delta := (rng.Float64()*2.0 - 1.0) * m.Strength
		v := ind.params[i] + delta
		if v < 0.0 {
			v = 0.0
		} else if v > 1.0 {
			v = 1.0
		}
		if v != ind.params[i] {
			ind.params[i] = v
			mutated = true
		}
	}
	if mutated {
		ind.evaluated = false
	}
}
