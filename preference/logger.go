package preference

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"

	"github.com/cwbudde/algo-evolve/evolve"
)

// Logger is the no-learning fallback model: it scores genomes randomly
// and records every feedback sample to a bare CSV (parameters plus
// rating). Useful for collecting a dataset before any network exists.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	w   *bufio.Writer
	rng *rand.Rand
}

// NewLogger opens or creates path, writing the header on a fresh file.
func NewLogger(path string, seed int64) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open feedback log: %w", err)
	}

	l := &Logger{
		f:   f,
		w:   bufio.NewWriter(f),
		rng: rand.New(rand.NewSource(seed)),
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat feedback log: %w", err)
	}
	if info.Size() == 0 {
		header := strings.Join(append(evolve.ParamNames(), "rating"), ",")
		if _, err := l.w.WriteString(header + "\n"); err != nil {
			f.Close()
			return nil, fmt.Errorf("write feedback header: %w", err)
		}
	}

	return l, nil
}

// Evaluate returns a uniform random score; the logger learns nothing.
func (l *Logger) Evaluate(genome []float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// SendFeedback appends the sample and returns; write errors surface on
// Close.
func (l *Logger) SendFeedback(genome []float64, fb evolve.Feedback) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sb strings.Builder
	for _, p := range genome {
		fmt.Fprintf(&sb, "%.6f,", p)
	}
	fmt.Fprintf(&sb, "%.1f\n", fb.Rating)
	l.w.WriteString(sb.String())
	l.w.Flush()
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
