package synth

import (
	"sync"

	"github.com/cwbudde/algo-evolve/feature"
)

// FeatureSource renders the standard audition phrase for a genome and
// extracts its raw feature vector. It satisfies feature.Source so a
// feature.Cache can sit in front of it. Safe for concurrent use; renders
// are serialized internally.
type FeatureSource struct {
	mu        sync.Mutex
	synth     *Synth
	extractor *feature.Extractor
}

// NewFeatureSource builds a renderer/extractor pair at the given rate.
func NewFeatureSource(sampleRate float64) (*FeatureSource, error) {
	ex, err := feature.NewExtractor(sampleRate)
	if err != nil {
		return nil, err
	}
	return &FeatureSource{
		synth:     New(sampleRate),
		extractor: ex,
	}, nil
}

// RawFeatures renders the audition phrase for genome and extracts its
// unnormalized features.
func (fs *FeatureSource) RawFeatures(genome []float64) ([]float64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.synth.ApplyGenome(genome); err != nil {
		return nil, err
	}
	totalSamples := int(fs.synth.SampleRate() * PhraseDuration)
	audio := fs.synth.RenderSequence(Phrase(totalSamples), totalSamples)
	return fs.extractor.Extract(audio), nil
}

// SetSampleRate rebuilds the renderer and extractor for a new rate.
func (fs *FeatureSource) SetSampleRate(rate float64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ex, err := feature.NewExtractor(rate)
	if err != nil {
		return err
	}
	fs.synth.SetSampleRate(rate)
	fs.extractor = ex
	return nil
}
