package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-evolve/evolve"
	"github.com/cwbudde/algo-evolve/feature"
	"github.com/cwbudde/algo-evolve/internal/wavio"
	"github.com/cwbudde/algo-evolve/synth"
	"github.com/cwbudde/mayfly"
)

type optimizationConfig struct {
	target           []float64
	initGenome       []float64
	sampleRate       int
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	repair           bool
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
}

type optimizationResult struct {
	best           []float64
	bestSimilarity float64
	evals          int
	elapsed        float64
}

type optimizationState struct {
	mu        sync.Mutex
	best      []float64
	bestScore float64
}

// runOptimization runs parallel worker rounds, each an independent Mayfly
// run over the normalized genome space. The objective is the feature
// distance to the reference, so lower is better.
func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))

	state := &optimizationState{bestScore: math.Inf(1)}

	var evals int64
	if cfg.initGenome != nil {
		source, err := synth.NewFeatureSource(float64(cfg.sampleRate))
		if err != nil {
			return nil, err
		}
		score, err := evaluateGenome(cfg, source, cfg.initGenome)
		if err != nil {
			return nil, fmt.Errorf("initial evaluation failed: %w", err)
		}
		evals = 1
		state.best = append([]float64(nil), cfg.initGenome...)
		state.bestScore = score
		fmt.Printf("Start similarity=%.2f%%\n", (1.0-score)*100.0)
	}

	var rounds int64
	var improves int64

	var wg sync.WaitGroup
	for i := 0; i < cfg.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			source, err := synth.NewFeatureSource(float64(cfg.sampleRate))
			if err != nil {
				fmt.Fprintf(os.Stderr, "worker %d setup failed: %v\n", workerID, err)
				return
			}
			for {
				if time.Now().After(deadline) {
					return
				}
				if atomic.LoadInt64(&evals) >= int64(cfg.maxEvals) {
					return
				}

				round := int(atomic.AddInt64(&rounds, 1))
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}
				budget := minInt(cfg.mayflyRoundEvals, remaining)
				iters := maxInt(1, budget/(2*cfg.mayflyPop))

				mayflyConfig, err := newMayflyConfig(cfg.mayflyVariant, cfg.mayflyPop, evolve.ParamCount, iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					score, err := evaluateGenome(cfg, source, pos)
					if err != nil {
						return currentBestScore(state) + 0.8
					}

					improved := false
					var improveNum int64
					var bestScore float64

					state.mu.Lock()
					if score < state.bestScore {
						state.best = append([]float64(nil), pos...)
						state.bestScore = score
						improved = true
						improveNum = atomic.AddInt64(&improves, 1)
					}
					bestScore = state.bestScore
					state.mu.Unlock()

					if improved {
						fmt.Printf("Improved #%d eval=%d similarity=%.2f%%\n",
							improveNum, evalNum, (1.0-score)*100.0)
					}
					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.2f%%\n",
							evalNum, cfg.maxEvals, time.Since(start).Seconds(), (1.0-bestScore)*100.0)
					}
					return score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}(i + 1)
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.best == nil {
		return nil, fmt.Errorf("no candidate was evaluated")
	}
	best := append([]float64(nil), state.best...)
	if cfg.repair {
		evolve.Repair(best)
	}
	return &optimizationResult{
		best:           best,
		bestSimilarity: 1.0 - state.bestScore,
		evals:          int(atomic.LoadInt64(&evals)),
		elapsed:        time.Since(start).Seconds(),
	}, nil
}

// evaluateGenome renders the audition phrase for the candidate and
// returns 1 - similarity against the target features.
func evaluateGenome(cfg *optimizationConfig, source *synth.FeatureSource, pos []float64) (float64, error) {
	genome := append([]float64(nil), pos...)
	for i, v := range genome {
		genome[i] = math.Min(1, math.Max(0, v))
	}
	if cfg.repair {
		evolve.Repair(genome)
	}
	raw, err := source.RawFeatures(genome)
	if err != nil {
		return 0, err
	}
	return 1.0 - feature.TargetSimilarity(raw, cfg.target), nil
}

func renderBest(genome []float64, sampleRate int, path string) error {
	s := synth.New(float64(sampleRate))
	if err := s.ApplyGenome(genome); err != nil {
		return err
	}
	total := int(float64(sampleRate) * synth.PhraseDuration)
	buf := s.RenderSequence(synth.Phrase(total), total)
	return wavio.WriteMonoWAV(path, buf, sampleRate)
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = maxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	score := state.bestScore
	state.mu.Unlock()
	return score
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
