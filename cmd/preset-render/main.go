// Command preset-render renders a preset JSON file to a WAV file, either
// as a single note or as the standard audition phrase, with optional
// decay-based auto-stop.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-evolve/evolve"
	"github.com/cwbudde/algo-evolve/internal/wavio"
	"github.com/cwbudde/algo-evolve/preset"
	"github.com/cwbudde/algo-evolve/synth"
)

func main() {
	presetPath := flag.String("preset", "presets/default.json", "Preset JSON file path")
	note := flag.Int("note", 60, "MIDI note number (60 = C4)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	duration := flag.Float64("duration", 2.0, "Render duration in seconds")
	holdFraction := flag.Float64("hold", 0.7, "Fraction of the duration to hold the note before release")
	phrase := flag.Bool("phrase", false, "Render the four-note audition phrase instead of a single note")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds with -decay-dbfs")
	sampleRate := flag.Int("sample-rate", 44100, "Render sample rate in Hz")
	repair := flag.Bool("repair", true, "Repair inaudible filter settings before rendering")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	if *velocity < 1 || *velocity > 127 {
		die("velocity must be in 1..127")
	}
	if *duration <= 0 {
		die("duration must be > 0")
	}

	genome, err := preset.LoadGenome(*presetPath)
	if err != nil {
		die("failed to load preset: %v", err)
	}
	if *repair {
		evolve.Repair(genome)
	}

	s := synth.New(float64(*sampleRate))
	if err := s.ApplyGenome(genome); err != nil {
		die("failed to apply preset: %v", err)
	}

	var buf []float64
	switch {
	case *phrase:
		total := int(float64(*sampleRate) * *duration)
		fmt.Printf("Rendering audition phrase for %.2fs at %d Hz (preset: %s)...\n",
			*duration, *sampleRate, *presetPath)
		buf = s.RenderSequence(synth.Phrase(total), total)
	case !math.IsInf(*decayDBFS, 1):
		fmt.Printf("Rendering note %d, velocity %d, auto-stop below %.1f dBFS (preset: %s)...\n",
			*note, *velocity, *decayDBFS, *presetPath)
		buf = renderAutoStop(s, *note, *velocity, *duration, *maxDuration,
			*decayDBFS, *decayHoldBlocks, *sampleRate)
		fmt.Printf("Auto-stop at %d frames (%.3fs)\n", len(buf), float64(len(buf))/float64(*sampleRate))
	default:
		fmt.Printf("Rendering note %d, velocity %d, for %.2fs at %d Hz (preset: %s)...\n",
			*note, *velocity, *duration, *sampleRate, *presetPath)
		total := int(float64(*sampleRate) * *duration)
		buf = s.RenderNote(*note, *velocity, total, *holdFraction)
	}

	if err := wavio.WriteMonoWAV(*output, buf, *sampleRate); err != nil {
		die("failed to write %s: %v", *output, err)
	}
	fmt.Printf("Wrote %s (%d frames)\n", *output, len(buf))
}

// renderAutoStop holds the note for duration seconds, then keeps
// rendering the release until the signal stays under the threshold or
// maxDuration is reached.
func renderAutoStop(s *synth.Synth, note, velocity int, holdSeconds, maxSeconds, decayDBFS float64, holdBlocks, sampleRate int) []float64 {
	const blockSize = 128
	if holdBlocks < 1 {
		holdBlocks = 1
	}
	threshold := math.Pow(10.0, decayDBFS/20.0)

	holdFrames := int(float64(sampleRate) * holdSeconds)
	maxFrames := int(float64(sampleRate) * maxSeconds)
	if maxFrames < holdFrames {
		maxFrames = holdFrames
	}

	s.Reset()
	s.NoteOn(note, velocity)

	out := make([]float64, 0, holdFrames)
	block := make([]float32, blockSize)
	released := false
	below := 0

	for len(out) < maxFrames {
		n := blockSize
		if len(out)+n > maxFrames {
			n = maxFrames - len(out)
		}
		if !released && len(out) >= holdFrames {
			s.NoteOff(note)
			released = true
		}

		s.Render(block[:n])
		var sum float64
		for _, v := range block[:n] {
			out = append(out, float64(v))
			sum += float64(v) * float64(v)
		}

		if released {
			if math.Sqrt(sum/float64(n)) < threshold {
				below++
				if below >= holdBlocks {
					break
				}
			} else {
				below = 0
			}
		}
	}
	return out
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
