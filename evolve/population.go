package evolve

import "math/rand"

// Population is a fixed-size collection of individuals with cached
// best/average/worst statistics. Statistics only consider individuals whose
// fitness has been evaluated and are recomputed lazily when dirty.
type Population struct {
	individuals []*Individual

	bestIndex    int
	avgFitness   float64
	worstFitness float64
	dirty        bool
}

// NewPopulation creates a population of size individuals, each with
// paramCount zero-valued parameters.
func NewPopulation(size, paramCount int) *Population {
	if size < 0 {
		size = 0
	}
	p := &Population{
		individuals: make([]*Individual, size),
		bestIndex:   -1,
		dirty:       true,
	}
	for i := range p.individuals {
		p.individuals[i] = NewIndividual(paramCount)
	}
	return p
}

// Len returns the population size.
func (p *Population) Len() int {
	return len(p.individuals)
}

// At returns the individual at index i.
func (p *Population) At(i int) *Individual {
	return p.individuals[i]
}

// InitializeRandom fills every individual with independent uniform [0,1)
// draws and invalidates all fitness values.
func (p *Population) InitializeRandom(rng *rand.Rand) {
	for _, ind := range p.individuals {
		for i := 0; i < ind.ParameterCount(); i++ {
			ind.params[i] = rng.Float64()
		}
		ind.InvalidateFitness()
	}
	p.MarkDirty()
}

// Replace swaps the individual at index and marks statistics dirty.
// Out-of-range indices are ignored.
func (p *Population) Replace(index int, ind *Individual) {
	if index < 0 || index >= len(p.individuals) || ind == nil {
		return
	}
	p.individuals[index] = ind
	p.MarkDirty()
}

// MarkDirty flags the cached statistics for recomputation. Call it after
// modifying individuals directly.
func (p *Population) MarkDirty() {
	p.dirty = true
}

// BestIndex returns the index of the fittest evaluated individual, or -1
// when nothing has been evaluated. Ties break toward the lower index.
func (p *Population) BestIndex() int {
	if p.dirty {
		p.updateStatistics()
	}
	return p.bestIndex
}

// Best returns the fittest evaluated individual, or nil when nothing has
// been evaluated yet.
func (p *Population) Best() *Individual {
	idx := p.BestIndex()
	if idx < 0 {
		return nil
	}
	return p.individuals[idx]
}

// BestFitness returns the highest evaluated fitness, or 0 when no
// individual is evaluated.
func (p *Population) BestFitness() float64 {
	if p.dirty {
		p.updateStatistics()
	}
	if p.bestIndex < 0 {
		return 0.0
	}
	return p.individuals[p.bestIndex].Fitness()
}

// AverageFitness returns the mean fitness over evaluated individuals, or 0
// when none are evaluated.
func (p *Population) AverageFitness() float64 {
	if p.dirty {
		p.updateStatistics()
	}
	return p.avgFitness
}

// WorstFitness returns the lowest evaluated fitness, or 0 when no
// individual is evaluated.
func (p *Population) WorstFitness() float64 {
	if p.dirty {
		p.updateStatistics()
	}
	return p.worstFitness
}

func (p *Population) updateStatistics() {
	p.bestIndex = -1
	p.avgFitness = 0.0
	p.worstFitness = 0.0

	var (
		best  float64
		worst float64
		sum   float64
		count int
	)
	for i, ind := range p.individuals {
		if !ind.Evaluated() {
			continue
		}
		f := ind.Fitness()
		sum += f
		count++
		if p.bestIndex < 0 || f > best {
			best = f
			p.bestIndex = i
		}
		if count == 1 || f < worst {
			worst = f
		}
	}
	if count > 0 {
		p.avgFitness = sum / float64(count)
		p.worstFitness = worst
	}
	p.dirty = false
}
