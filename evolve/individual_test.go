package evolve

import "testing"

func TestIndividualStartsUnevaluated(t *testing.T) {
	ind := NewIndividual(17)
	if ind.Evaluated() {
		t.Fatalf("expected new individual to be unevaluated")
	}
	if ind.ParameterCount() != 17 {
		t.Fatalf("expected 17 parameters, got %d", ind.ParameterCount())
	}
	for i := 0; i < 17; i++ {
		if ind.Parameter(i) != 0.0 {
			t.Fatalf("expected zero parameter at %d, got %f", i, ind.Parameter(i))
		}
	}
}

func TestIndividualSetFitnessMarksEvaluated(t *testing.T) {
	ind := NewIndividual(4)
	ind.SetFitness(0.75)
	if !ind.Evaluated() {
		t.Fatalf("expected evaluated after SetFitness")
	}
	if ind.Fitness() != 0.75 {
		t.Fatalf("expected fitness 0.75, got %f", ind.Fitness())
	}
}

func TestIndividualParameterWriteInvalidatesFitness(t *testing.T) {
	ind := NewIndividual(4)
	ind.SetFitness(0.5)
	ind.SetParameter(2, 0.9)
	if ind.Evaluated() {
		t.Fatalf("expected fitness invalidated after SetParameter")
	}
	if ind.Parameter(2) != 0.9 {
		t.Fatalf("expected parameter 0.9, got %f", ind.Parameter(2))
	}
}

func TestIndividualOutOfRangeAccess(t *testing.T) {
	ind := NewIndividual(3)
	if got := ind.Parameter(-1); got != 0.0 {
		t.Fatalf("expected 0.0 for negative index, got %f", got)
	}
	if got := ind.Parameter(3); got != 0.0 {
		t.Fatalf("expected 0.0 for index past end, got %f", got)
	}

	ind.SetFitness(0.4)
	ind.SetParameter(7, 0.5)
	if !ind.Evaluated() {
		t.Fatalf("out-of-range write must not invalidate fitness")
	}
}

func TestIndividualSetParametersCopies(t *testing.T) {
	src := []float64{0.1, 0.2, 0.3}
	ind := NewIndividualFrom(src)
	src[0] = 0.9
	if ind.Parameter(0) != 0.1 {
		t.Fatalf("expected construction to copy, got %f", ind.Parameter(0))
	}

	out := ind.Parameters()
	out[1] = 0.8
	if ind.Parameter(1) != 0.2 {
		t.Fatalf("expected Parameters to copy, got %f", ind.Parameter(1))
	}

	ind.SetFitness(1.0)
	ind.SetParameters([]float64{0.5, 0.5, 0.5})
	if ind.Evaluated() {
		t.Fatalf("expected SetParameters to invalidate fitness")
	}
}

func TestIndividualClone(t *testing.T) {
	ind := NewIndividualFrom([]float64{0.2, 0.4})
	ind.SetFitness(0.6)
	cp := ind.Clone()
	cp.SetParameter(0, 0.99)
	if ind.Parameter(0) != 0.2 {
		t.Fatalf("clone must not share parameter storage")
	}
	if !ind.Evaluated() || cp.Evaluated() {
		t.Fatalf("clone state tracking wrong: orig=%v clone=%v", ind.Evaluated(), cp.Evaluated())
	}
}
