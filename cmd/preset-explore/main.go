// Command preset-explore runs an interactive sound-design session: a
// background genetic search proposes synth presets, the preference model
// scores them, and the user's like/dislike feedback trains the model.
//
// With -reference the session runs unattended: feedback is derived from
// audio-feature similarity against a target WAV instead of a human.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/algo-evolve/evolve"
	"github.com/cwbudde/algo-evolve/feature"
	"github.com/cwbudde/algo-evolve/internal/wavio"
	"github.com/cwbudde/algo-evolve/preference"
	"github.com/cwbudde/algo-evolve/preset"
	"github.com/cwbudde/algo-evolve/synth"
)

func main() {
	dir := flag.String("dir", "explore-session", "Session directory for model weights and dataset CSV")
	inputMode := flag.String("input", "genome", "Preference model input: genome or audio")
	adaptive := flag.Bool("adaptive", false, "Decay exploration rate over generations")
	novelty := flag.Bool("novelty", false, "Reward candidates far from the population")
	multiObjective := flag.Bool("multiobjective", false, "Blend preference fitness with novelty")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	sampleRate := flag.Int("sample-rate", 44100, "Audition sample rate in Hz")
	reference := flag.String("reference", "", "Reference WAV for unattended runs; feedback = feature similarity")
	iterations := flag.Int("iterations", 200, "Candidates to evaluate with -reference")
	bestOut := flag.String("best", "", "Preset JSON path for the best candidate (default <dir>/best.json)")
	flag.Parse()

	cfg := evolve.DefaultConfig()
	cfg.AdaptiveExploration = *adaptive
	cfg.NoveltyBonus = *novelty
	cfg.MultiObjective = *multiObjective
	switch *inputMode {
	case "genome":
		cfg.InputMode = evolve.InputGenome
	case "audio":
		cfg.InputMode = evolve.InputAudio
	default:
		die("unknown input mode %q (want genome or audio)", *inputMode)
	}

	source, err := synth.NewFeatureSource(float64(*sampleRate))
	if err != nil {
		die("failed to create feature source: %v", err)
	}
	cache := feature.NewCache(source, float64(*sampleRate), feature.DefaultCacheCapacity)

	model, err := preference.NewModel(preference.Options{
		Dir:    *dir,
		Cache:  cache,
		Config: cfg,
		Seed:   *seed,
	})
	if err != nil {
		die("failed to create preference model: %v", err)
	}
	defer model.Close()

	engine := evolve.NewEngine(model, *seed)
	engine.SetConfig(cfg)
	engine.Start()
	defer engine.Stop()

	fmt.Printf("Session: %s (mode: %s)\n", *dir, cfg.Flags())

	var best session
	if *reference != "" {
		best = runUnattended(engine, model, source, *reference, *sampleRate, *iterations)
	} else {
		best = runInteractive(engine, model, *dir, *sampleRate)
	}

	if best.genome == nil {
		fmt.Println("No candidates rated; nothing to save.")
		return
	}

	out := *bestOut
	if out == "" {
		out = filepath.Join(*dir, "best.json")
	}
	file, err := preset.FromGenome("best", best.genome)
	if err != nil {
		die("failed to build preset: %v", err)
	}
	if err := preset.SaveJSON(out, file); err != nil {
		die("failed to save preset: %v", err)
	}
	hits, misses := cache.Stats()
	fmt.Printf("Best candidate (rating %.3f) saved to %s\n", best.rating, out)
	fmt.Printf("Samples: %d, cache: %d hits / %d misses\n", model.SampleCount(), hits, misses)
}

type session struct {
	genome []float64
	rating float64
}

// runInteractive pops candidates one at a time, renders each to a WAV for
// audition, and reads ratings from stdin.
func runInteractive(engine *evolve.Engine, model *preference.Model, dir string, sampleRate int) session {
	fmt.Println("Commands: l=like d=dislike 0..1=rating s=skip q=quit")

	auditionPath := filepath.Join(dir, "candidate.wav")
	scanner := bufio.NewScanner(os.Stdin)
	var best session
	index := 0

	for {
		genome, fitness, ok := waitForCandidate(engine.Bridge())
		if !ok {
			return best
		}
		index++

		if err := renderCandidate(genome, sampleRate, auditionPath); err != nil {
			fmt.Fprintf(os.Stderr, "render failed, skipping candidate: %v\n", err)
			continue
		}
		fmt.Printf("\n#%d predicted %.3f -> %s\n", index, fitness, auditionPath)
		fmt.Print("> ")

		started := time.Now()
		if !scanner.Scan() {
			return best
		}
		playTime := time.Since(started).Seconds()

		rating, quit, skip := parseRating(strings.TrimSpace(scanner.Text()))
		if quit {
			return best
		}
		if skip {
			continue
		}

		model.SendFeedback(genome, evolve.NewFeedback(rating, playTime))
		if best.genome == nil || rating > best.rating {
			best = session{genome: genome, rating: rating}
		}
	}
}

// runUnattended rates candidates by audio-feature similarity to the
// reference recording, closing the loop without a human.
func runUnattended(engine *evolve.Engine, model *preference.Model, source *synth.FeatureSource, refPath string, sampleRate, iterations int) session {
	samples, fileRate, err := wavio.ReadMonoWAV(refPath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	samples, err = wavio.ResampleIfNeeded(samples, fileRate, sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}
	extractor, err := feature.NewExtractor(float64(sampleRate))
	if err != nil {
		die("failed to create extractor: %v", err)
	}
	target := extractor.Extract(samples)
	fmt.Printf("Reference: %s (%d frames at %d Hz)\n", refPath, len(samples), fileRate)

	var best session
	for i := 0; i < iterations; i++ {
		genome, _, ok := waitForCandidate(engine.Bridge())
		if !ok {
			break
		}

		raw, err := source.RawFeatures(genome)
		if err != nil {
			fmt.Fprintf(os.Stderr, "feature extraction failed: %v\n", err)
			continue
		}
		rating := feature.TargetSimilarity(raw, target)

		model.SendFeedback(genome, evolve.NewFeedback(rating, 0))
		if best.genome == nil || rating > best.rating {
			best = session{genome: genome, rating: rating}
			fmt.Printf("iter %4d: new best similarity %.4f\n", i+1, rating)
		} else if (i+1)%25 == 0 {
			fmt.Printf("iter %4d: best %.4f\n", i+1, best.rating)
		}
	}
	return best
}

// waitForCandidate polls the bridge until the engine publishes something.
func waitForCandidate(bridge *evolve.Bridge) ([]float64, float64, bool) {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if genome, fitness, ok := bridge.Pop(); ok {
			return genome, fitness, true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return nil, 0, false
}

func renderCandidate(genome []float64, sampleRate int, path string) error {
	s := synth.New(float64(sampleRate))
	if err := s.ApplyGenome(genome); err != nil {
		return err
	}
	total := int(float64(sampleRate) * synth.PhraseDuration)
	buf := s.RenderSequence(synth.Phrase(total), total)
	return wavio.WriteMonoWAV(path, buf, sampleRate)
}

func parseRating(line string) (rating float64, quit, skip bool) {
	switch strings.ToLower(line) {
	case "q", "quit":
		return 0, true, false
	case "s", "skip", "":
		return 0, false, true
	case "l", "like", "y":
		return 1.0, false, false
	case "d", "dislike", "n":
		return 0.0, false, false
	}
	v, err := strconv.ParseFloat(line, 64)
	if err != nil || math.IsNaN(v) {
		fmt.Fprintln(os.Stderr, "unrecognized input, skipping")
		return 0, false, true
	}
	return math.Min(1, math.Max(0, v)), false, false
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
