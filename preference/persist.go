package preference

import (
	"fmt"
	"os"

	"github.com/cwbudde/algo-evolve/mlp"
)

// loadWeights restores both networks from the weights file. A missing
// file or a record whose length does not match the current architecture
// is ignored silently; the affected network keeps its fresh
// initialization.
func (m *Model) loadWeights() {
	f, err := os.Open(m.weightsPath)
	if err != nil {
		return
	}
	defer f.Close()

	records, err := mlp.ReadWeights(f, 2)
	if err != nil {
		return
	}

	m.netMu.Lock()
	defer m.netMu.Unlock()
	m.genomeNet.SetWeights(records[0])
	m.audioNet.SetWeights(records[1])
}

// saveWeights writes both networks' full state, truncating any previous
// file.
func (m *Model) saveWeights() error {
	m.netMu.Lock()
	genomeWeights := m.genomeNet.Weights()
	audioWeights := m.audioNet.Weights()
	m.netMu.Unlock()

	f, err := os.Create(m.weightsPath)
	if err != nil {
		return fmt.Errorf("create weights file: %w", err)
	}
	if err := mlp.WriteWeights(f, genomeWeights, audioWeights); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
