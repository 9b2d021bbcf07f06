package main

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-evolve/evolve"
	"github.com/cwbudde/algo-evolve/feature"
	"github.com/cwbudde/algo-evolve/synth"
)

func TestNewMayflyConfig(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{variant: "ma"},
		{variant: "desma"},
		{variant: "olce"},
		{variant: "eobbma"},
		{variant: "gsasma"},
		{variant: "mpma"},
		{variant: "aoblmoa"},
		{variant: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			cfg, err := newMayflyConfig(tt.variant, 10, evolve.ParamCount, 20)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("newMayflyConfig(%q) expected error", tt.variant)
				}
				return
			}
			if err != nil {
				t.Fatalf("newMayflyConfig(%q) unexpected error: %v", tt.variant, err)
			}
			if cfg.ProblemSize != evolve.ParamCount {
				t.Fatalf("ProblemSize = %d, want %d", cfg.ProblemSize, evolve.ParamCount)
			}
			if cfg.LowerBound != 0.0 || cfg.UpperBound != 1.0 {
				t.Fatalf("bounds = [%v,%v], want [0,1]", cfg.LowerBound, cfg.UpperBound)
			}
			if cfg.NPop != 10 || cfg.NPopF != 10 {
				t.Fatalf("NPop/NPopF = %d/%d, want 10/10", cfg.NPop, cfg.NPopF)
			}
			if cfg.MaxIterations != 20 {
				t.Fatalf("MaxIterations = %d, want 20", cfg.MaxIterations)
			}
		})
	}
}

func TestReserveEvalCapsAtMax(t *testing.T) {
	const (
		maxEvals = 47
		workers  = 8
	)

	var evals int64
	var granted int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, ok := reserveEval(&evals, maxEvals); !ok {
					return
				}
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&granted); got != maxEvals {
		t.Fatalf("granted evaluations = %d, want %d", got, maxEvals)
	}
	if got := atomic.LoadInt64(&evals); got != maxEvals {
		t.Fatalf("eval counter = %d, want %d", got, maxEvals)
	}
}

func TestEvaluateGenomeSelfTargetScoresBest(t *testing.T) {
	const sampleRate = 44100.0

	source, err := synth.NewFeatureSource(sampleRate)
	if err != nil {
		t.Fatalf("NewFeatureSource failed: %v", err)
	}

	genome := make([]float64, evolve.ParamCount)
	for i := range genome {
		genome[i] = 0.5
	}
	evolve.Repair(genome)

	target, err := source.RawFeatures(genome)
	if err != nil {
		t.Fatalf("RawFeatures failed: %v", err)
	}

	cfg := &optimizationConfig{
		target:     target,
		sampleRate: int(sampleRate),
		repair:     true,
	}

	self, err := evaluateGenome(cfg, source, genome)
	if err != nil {
		t.Fatalf("evaluateGenome(self) failed: %v", err)
	}
	if self > 1e-9 {
		t.Fatalf("self distance = %g, want ~0", self)
	}

	other := make([]float64, evolve.ParamCount)
	for i := range other {
		other[i] = 0.9
	}
	score, err := evaluateGenome(cfg, source, other)
	if err != nil {
		t.Fatalf("evaluateGenome(other) failed: %v", err)
	}
	if score <= self {
		t.Fatalf("different genome scored %g, want worse than %g", score, self)
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		t.Fatalf("score = %g, want within [0,1]", score)
	}
}

func TestEvaluateGenomeClampsOutOfBounds(t *testing.T) {
	const sampleRate = 44100.0

	source, err := synth.NewFeatureSource(sampleRate)
	if err != nil {
		t.Fatalf("NewFeatureSource failed: %v", err)
	}
	target := make([]float64, feature.VectorSize)

	cfg := &optimizationConfig{
		target:     target,
		sampleRate: int(sampleRate),
		repair:     true,
	}

	pos := make([]float64, evolve.ParamCount)
	for i := range pos {
		if i%2 == 0 {
			pos[i] = 1.4
		} else {
			pos[i] = -0.3
		}
	}
	if _, err := evaluateGenome(cfg, source, pos); err != nil {
		t.Fatalf("evaluateGenome with out-of-bounds position failed: %v", err)
	}
	// The optimizer owns pos; clamping must not write back into it.
	if pos[0] != 1.4 || pos[1] != -0.3 {
		t.Fatalf("position mutated in place: %v", pos[:2])
	}
}
