// Command preset-fit searches the genome space for a preset whose
// rendered audition phrase matches a reference recording, using parallel
// Mayfly optimization rounds over the audio-feature distance.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-evolve/feature"
	"github.com/cwbudde/algo-evolve/internal/wavio"
	"github.com/cwbudde/algo-evolve/preset"
)

func main() {
	referencePath := flag.String("reference", "reference/target.wav", "Reference WAV path")
	startPreset := flag.String("preset", "", "Optional preset JSON to seed the search (default: neutral genome)")
	outputPreset := flag.String("output-preset", "fitted.json", "Path to write the best fitted preset JSON")
	outputWAV := flag.String("output-wav", "", "Optional path to render the best preset's audition phrase")
	sampleRate := flag.Int("sample-rate", 44100, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 5000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations")
	repair := flag.Bool("repair", true, "Repair inaudible candidates before rendering")
	workersFlag := flag.String("workers", "auto", "Parallel optimization workers running independent Mayfly rounds (number or 'auto')")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *outputPreset == "" {
		die("output-preset must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}

	workers := parseWorkers(*workersFlag)

	samples, fileRate, err := wavio.ReadMonoWAV(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	samples, err = wavio.ResampleIfNeeded(samples, fileRate, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}
	extractor, err := feature.NewExtractor(float64(*sampleRate))
	if err != nil {
		die("failed to create extractor: %v", err)
	}
	target := extractor.Extract(samples)
	fmt.Printf("Reference: %s (%d frames at %d Hz)\n", *referencePath, len(samples), fileRate)

	var initGenome []float64
	if *startPreset != "" {
		initGenome, err = preset.LoadGenome(*startPreset)
		if err != nil {
			die("failed to load preset: %v", err)
		}
		fmt.Printf("Seeding search from %s\n", *startPreset)
	}

	cfg := &optimizationConfig{
		target:           target,
		initGenome:       initGenome,
		sampleRate:       *sampleRate,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		repair:           *repair,
		mayflyVariant:    strings.ToLower(*mayflyVariant),
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          workers,
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	fmt.Printf("Done: %d evals in %.1fs, similarity %.2f%%\n",
		result.evals, result.elapsed, result.bestSimilarity*100.0)

	file, err := preset.FromGenome("fitted", result.best)
	if err != nil {
		die("failed to build preset: %v", err)
	}
	if err := preset.SaveJSON(*outputPreset, file); err != nil {
		die("failed to save preset: %v", err)
	}
	fmt.Printf("Wrote %s\n", *outputPreset)

	if *outputWAV != "" {
		if err := renderBest(result.best, *sampleRate, *outputWAV); err != nil {
			die("failed to render best preset: %v", err)
		}
		fmt.Printf("Wrote %s\n", *outputWAV)
	}
}

func parseWorkers(v string) int {
	if strings.EqualFold(strings.TrimSpace(v), "auto") {
		return runtime.GOMAXPROCS(0)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		die("workers must be a positive number or 'auto'")
	}
	return n
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
