package preference

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/algo-evolve/evolve"
	"github.com/cwbudde/algo-evolve/feature"
)

func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	m, err := NewModel(opts)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func waitForSamples(t *testing.T, m *Model, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m.SampleCount() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d samples, have %d", n, m.SampleCount())
}

func genomeVal(v float64) []float64 {
	g := make([]float64, evolve.ParamCount)
	for i := range g {
		g[i] = v
	}
	return g
}

func TestFreshModelPredictsNeutral(t *testing.T) {
	m := newTestModel(t, Options{})
	defer m.Close()

	if got := m.Evaluate(genomeVal(0.4)); got != 0.5 {
		t.Fatalf("fresh prediction = %v, want 0.5", got)
	}
}

func TestFeedbackSeparatesLikedFromDisliked(t *testing.T) {
	m := newTestModel(t, Options{})
	defer m.Close()

	liked := genomeVal(0.8)
	disliked := genomeVal(0.2)

	for i := 0; i < 30; i++ {
		m.SendFeedback(liked, evolve.NewFeedback(1.0, 5.0))
		m.SendFeedback(disliked, evolve.NewFeedback(0.0, 5.0))
	}
	waitForSamples(t, m, 60)

	if l, d := m.Evaluate(liked), m.Evaluate(disliked); l <= d {
		t.Fatalf("liked %v <= disliked %v after training", l, d)
	}
	if err := m.Err(); err != nil {
		t.Fatalf("background error: %v", err)
	}
}

func TestSendFeedbackDoesNotBlock(t *testing.T) {
	m := newTestModel(t, Options{})
	defer m.Close()

	start := time.Now()
	for i := 0; i < 200; i++ {
		m.SendFeedback(genomeVal(float64(i%10)/10.0), evolve.NewFeedback(1.0, 1.0))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("200 SendFeedback calls took %v", elapsed)
	}
	waitForSamples(t, m, 200)
}

func TestCloseDrainsQueue(t *testing.T) {
	dir := t.TempDir()
	m := newTestModel(t, Options{Dir: dir})

	for i := 0; i < 10; i++ {
		m.SendFeedback(genomeVal(0.5), evolve.NewFeedback(1.0, 2.0))
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := m.SampleCount(); got != 10 {
		t.Fatalf("trained %d samples after Close, want 10", got)
	}
}

func TestWeightPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := newTestModel(t, Options{Dir: dir})
	liked := genomeVal(0.9)
	for i := 0; i < 20; i++ {
		m.SendFeedback(liked, evolve.NewFeedback(1.0, 5.0))
	}
	waitForSamples(t, m, 20)
	before := m.Evaluate(liked)
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reloaded := newTestModel(t, Options{Dir: dir, Seed: 99})
	defer reloaded.Close()
	after := reloaded.Evaluate(liked)

	// Weights pass through float32 on disk.
	if math.Abs(before-after) > 1e-4 {
		t.Fatalf("prediction changed across restart: %v -> %v", before, after)
	}
	if after == 0.5 {
		t.Fatal("reloaded model predicts the neutral prior; weights not loaded")
	}
}

func TestArchitectureMismatchFallsBackFresh(t *testing.T) {
	dir := t.TempDir()

	m := newTestModel(t, Options{Dir: dir, HiddenSize: 16})
	for i := 0; i < 10; i++ {
		m.SendFeedback(genomeVal(0.9), evolve.NewFeedback(1.0, 5.0))
	}
	waitForSamples(t, m, 10)
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Different hidden size: persisted records must be rejected.
	other := newTestModel(t, Options{Dir: dir, HiddenSize: 8, Seed: 2})
	defer other.Close()
	if got := other.Evaluate(genomeVal(0.9)); got != 0.5 {
		t.Fatalf("mismatched weights were applied: prediction %v, want 0.5", got)
	}
}

func TestDatasetRowsWritten(t *testing.T) {
	dir := t.TempDir()
	m := newTestModel(t, Options{Dir: dir})

	for i := 0; i < 7; i++ {
		m.SendFeedback(genomeVal(0.3), evolve.NewFeedback(1.0, 2.5))
	}
	waitForSamples(t, m, 7)
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, datasetFileName))
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 8 {
		t.Fatalf("dataset has %d lines, want header + 7 rows", len(lines))
	}
	if lines[0] != datasetHeader() {
		t.Fatalf("header = %q, want %q", lines[0], datasetHeader())
	}
	cols := strings.Split(lines[1], ",")
	want := evolve.ParamCount + 8
	if len(cols) != want {
		t.Fatalf("row has %d columns, want %d", len(cols), want)
	}
}

func TestDatasetRotatesOnHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, datasetFileName)
	if err := os.WriteFile(path, []byte("old,schema\n1,2\n"), 0o644); err != nil {
		t.Fatalf("seed old dataset: %v", err)
	}

	m := newTestModel(t, Options{Dir: dir})
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var backups int
	for _, e := range entries {
		if strings.Contains(e.Name(), "backup") {
			backups++
		}
	}
	if backups != 1 {
		t.Fatalf("found %d backup files, want 1", backups)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if !strings.HasPrefix(string(data), datasetHeader()) {
		t.Fatal("rotated dataset missing current header")
	}
}

// stubSource returns synthetic raw features derived from the genome, so
// audio-mode tests run without a synthesizer.
type stubSource struct{}

func (stubSource) RawFeatures(genome []float64) ([]float64, error) {
	raw := make([]float64, feature.VectorSize)
	for i := range raw {
		raw[i] = genome[i%len(genome)] * 10.0
	}
	return raw, nil
}

func (stubSource) SetSampleRate(float64) error { return nil }

func TestAudioInputMode(t *testing.T) {
	cache := feature.NewCache(stubSource{}, 44100, 32)
	cfg := evolve.DefaultConfig()
	cfg.InputMode = evolve.InputAudio

	m := newTestModel(t, Options{Cache: cache, Config: cfg})
	defer m.Close()

	liked := genomeVal(0.8)
	disliked := genomeVal(0.2)
	for i := 0; i < 30; i++ {
		m.SendFeedback(liked, evolve.NewFeedback(1.0, 5.0))
		m.SendFeedback(disliked, evolve.NewFeedback(0.0, 5.0))
	}
	waitForSamples(t, m, 60)

	if l, d := m.Evaluate(liked), m.Evaluate(disliked); l <= d {
		t.Fatalf("audio-mode liked %v <= disliked %v", l, d)
	}
	if !cache.HasCached(liked) || !cache.HasCached(disliked) {
		t.Fatal("training did not populate the feature cache")
	}
}

func TestEngineIntegration(t *testing.T) {
	m := newTestModel(t, Options{})
	defer m.Close()

	engine := evolve.NewEngine(m, 7)
	engine.Start()
	defer engine.Stop()

	bridge := engine.Bridge()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if params, _, ok := bridge.Pop(); ok {
			m.SendFeedback(params, evolve.NewFeedback(1.0, 3.0))
			if m.SampleCount() >= 3 {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("engine and model did not exchange feedback in time")
}
