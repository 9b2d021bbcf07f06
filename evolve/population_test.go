package evolve

import (
	"math/rand"
	"testing"
)

func TestPopulationInitializeRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pop := NewPopulation(20, ParamCount)
	pop.InitializeRandom(rng)

	allZero := true
	for i := 0; i < pop.Len(); i++ {
		ind := pop.At(i)
		if ind.Evaluated() {
			t.Fatalf("individual %d should be unevaluated after init", i)
		}
		for j := 0; j < ind.ParameterCount(); j++ {
			v := ind.Parameter(j)
			if v < 0.0 || v > 1.0 {
				t.Fatalf("parameter out of [0,1]: %f", v)
			}
			if v != 0.0 {
				allZero = false
			}
		}
	}
	if allZero {
		t.Fatalf("expected random initialization to produce non-zero parameters")
	}
}

func TestPopulationStatisticsIgnoreUnevaluated(t *testing.T) {
	pop := NewPopulation(5, 3)
	if pop.BestIndex() != -1 {
		t.Fatalf("expected best index -1 with no evaluations, got %d", pop.BestIndex())
	}
	if pop.AverageFitness() != 0.0 || pop.WorstFitness() != 0.0 {
		t.Fatalf("expected zero stats with no evaluations")
	}

	pop.At(1).SetFitness(0.4)
	pop.At(3).SetFitness(0.9)
	pop.MarkDirty()

	if got := pop.BestIndex(); got != 3 {
		t.Fatalf("expected best index 3, got %d", got)
	}
	if got := pop.BestFitness(); got != 0.9 {
		t.Fatalf("expected best fitness 0.9, got %f", got)
	}
	if got := pop.AverageFitness(); got < 0.649 || got > 0.651 {
		t.Fatalf("expected average 0.65, got %f", got)
	}
	if got := pop.WorstFitness(); got != 0.4 {
		t.Fatalf("expected worst 0.4, got %f", got)
	}
}

func TestPopulationBestTieBreaksLow(t *testing.T) {
	pop := NewPopulation(4, 2)
	for i := 0; i < 4; i++ {
		pop.At(i).SetFitness(0.5)
	}
	pop.MarkDirty()
	if got := pop.BestIndex(); got != 0 {
		t.Fatalf("expected first-of-ties index 0, got %d", got)
	}
}

func TestPopulationReplaceMarksDirty(t *testing.T) {
	pop := NewPopulation(3, 2)
	pop.At(0).SetFitness(0.1)
	pop.At(1).SetFitness(0.2)
	pop.At(2).SetFitness(0.3)
	pop.MarkDirty()
	if got := pop.BestFitness(); got != 0.3 {
		t.Fatalf("expected best 0.3, got %f", got)
	}

	repl := NewIndividualFrom([]float64{0.5, 0.5})
	repl.SetFitness(0.95)
	pop.Replace(0, repl)
	if got := pop.BestFitness(); got != 0.95 {
		t.Fatalf("expected stats refresh after replace, got %f", got)
	}

	// Out-of-range replace is ignored.
	pop.Replace(9, repl)
	if pop.Len() != 3 {
		t.Fatalf("expected size unchanged, got %d", pop.Len())
	}
}
