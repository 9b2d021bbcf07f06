package preference

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-evolve/evolve"
)

func TestLoggerWritesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")
	l, err := NewLogger(path, 1)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	g := make([]float64, evolve.ParamCount)
	for i := range g {
		g[i] = 0.25
	}
	l.SendFeedback(g, evolve.NewFeedback(1.0, 2.0))
	l.SendFeedback(g, evolve.NewFeedback(0.0, 1.0))
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("log has %d lines, want header + 2 rows", len(lines))
	}
	if !strings.HasSuffix(lines[0], "noise,rating") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",1.0") || !strings.HasSuffix(lines[2], ",0.0") {
		t.Fatalf("unexpected rows: %q / %q", lines[1], lines[2])
	}
}

func TestLoggerEvaluateRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")
	l, err := NewLogger(path, 2)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer l.Close()

	for i := 0; i < 100; i++ {
		v := l.Evaluate(nil)
		if v < 0.0 || v >= 1.0 {
			t.Fatalf("Evaluate returned %v outside [0,1)", v)
		}
	}
}

func TestLoggerAppendsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")
	g := make([]float64, evolve.ParamCount)

	for session := 0; session < 2; session++ {
		l, err := NewLogger(path, int64(session))
		if err != nil {
			t.Fatalf("NewLogger: %v", err)
		}
		l.SendFeedback(g, evolve.NewFeedback(1.0, 1.0))
		if err := l.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("log has %d lines after two sessions, want 3 (one header)", len(lines))
	}
}
