// Package preset stores synth genomes as human-editable JSON files with
// named parameters.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-evolve/evolve"
)

// File is the JSON schema for a preset: named normalized parameters plus
// optional descriptive metadata. Missing parameters default to 0.5;
// unknown names are rejected so typos do not silently fall back.
type File struct {
	Name        string             `json:"name,omitempty"`
	Description string             `json:"description,omitempty"`
	Parameters  map[string]float64 `json:"parameters"`
}

// FromGenome builds a preset file from a genome.
func FromGenome(name string, genome []float64) (*File, error) {
	if len(genome) != evolve.ParamCount {
		return nil, fmt.Errorf("genome has %d parameters, want %d", len(genome), evolve.ParamCount)
	}
	params := make(map[string]float64, evolve.ParamCount)
	for i, n := range evolve.ParamNames() {
		params[n] = genome[i]
	}
	return &File{Name: name, Parameters: params}, nil
}

// Genome converts the preset back to genome layout, validating every
// entry. Unlisted parameters take the neutral 0.5.
func (f *File) Genome() ([]float64, error) {
	names := evolve.ParamNames()
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	genome := make([]float64, evolve.ParamCount)
	for i := range genome {
		genome[i] = 0.5
	}

	for name, value := range f.Parameters {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("unknown parameter %q", name)
		}
		if value < 0.0 || value > 1.0 {
			return nil, fmt.Errorf("parameter %q = %v outside [0,1]", name, value)
		}
		genome[i] = value
	}
	return genome, nil
}

// LoadJSON reads a preset file from disk.
func LoadJSON(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse preset %s: %w", path, err)
	}
	if f.Parameters == nil {
		return nil, fmt.Errorf("preset %s has no parameters object", path)
	}
	return &f, nil
}

// SaveJSON writes the preset with stable indented formatting, creating
// parent directories as needed.
func SaveJSON(path string, f *File) error {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// LoadGenome is the common load-and-convert path for the command line
// tools.
func LoadGenome(path string) ([]float64, error) {
	f, err := LoadJSON(path)
	if err != nil {
		return nil, err
	}
	return f.Genome()
}
