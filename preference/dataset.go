package preference

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/algo-evolve/evolve"
)

type datasetRow struct {
	genome      []float64
	rating      float64
	playTime    float64
	sampleIndex int
	genomePred  float64
	audioPred   float64
	configFlags string
	timestamp   time.Time
	weight      float64
}

// datasetWriter appends feedback rows to a CSV file whose schema is
// versioned by its header line. An existing file with a different
// header is rotated to a timestamped backup, never overwritten.
type datasetWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
}

func datasetHeader() string {
	cols := append(evolve.ParamNames(),
		"rating", "playTimeSeconds", "sampleIndex",
		"mlpGenomePrediction", "mlpAudioPrediction",
		"configFlags", "timestamp", "sampleWeight")
	return strings.Join(cols, ",")
}

func newDatasetWriter(path string) (*datasetWriter, error) {
	if err := rotateOnHeaderMismatch(path); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	w := &datasetWriter{path: path, f: f, w: bufio.NewWriter(f)}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	if info.Size() == 0 {
		if _, err := w.w.WriteString(datasetHeader() + "\n"); err != nil {
			f.Close()
			return nil, fmt.Errorf("write dataset header: %w", err)
		}
	}

	return w, nil
}

// rotateOnHeaderMismatch moves an existing file aside when its first
// line differs from the current schema.
func rotateOnHeaderMismatch(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open dataset: %w", err)
	}

	scanner := bufio.NewScanner(f)
	var first string
	if scanner.Scan() {
		first = strings.TrimSpace(scanner.Text())
	}
	f.Close()

	if first == "" || first == datasetHeader() {
		return nil
	}

	backup := strings.TrimSuffix(path, ".csv") +
		"_backup_" + time.Now().Format("20060102_150405") + ".csv"
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("rotate dataset: %w", err)
	}
	return nil
}

func (d *datasetWriter) Append(row datasetRow) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var sb strings.Builder
	for _, p := range row.genome {
		fmt.Fprintf(&sb, "%.6f,", p)
	}
	fmt.Fprintf(&sb, "%.1f,%.2f,%d,%.6f,%.6f,%s,%s,%.2f\n",
		row.rating, row.playTime, row.sampleIndex,
		row.genomePred, row.audioPred,
		row.configFlags, row.timestamp.Format(time.RFC3339), row.weight)

	if _, err := d.w.WriteString(sb.String()); err != nil {
		return fmt.Errorf("append dataset row: %w", err)
	}
	// Flush per row; feedback is rare and rows must survive a crash.
	if err := d.w.Flush(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	return nil
}

func (d *datasetWriter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.w.Flush(); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}
