// Package preference learns the user's taste online: two small networks
// (one over genome parameters, one over audio features) trained in the
// background from binary like/dislike feedback, with replay, weight
// persistence, and an append-only CSV dataset.
package preference

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cwbudde/algo-evolve/evolve"
	"github.com/cwbudde/algo-evolve/feature"
	"github.com/cwbudde/algo-evolve/mlp"
)

const (
	// DefaultHiddenSize is the hidden layer width of both networks.
	DefaultHiddenSize = 16

	learningRate    = 0.001
	replayCapacity  = 64
	replayBatchSize = 8
	persistEvery    = 5

	datasetFileName = "feedback_dataset.csv"
	weightsFileName = "mlp_weights.bin"
)

type trainingSample struct {
	genome   []float64
	feedback evolve.Feedback
}

// Options configures a Model. Zero values select sane defaults; Cache
// may be nil to run genome-only.
type Options struct {
	Dir        string
	Cache      *feature.Cache
	Config     evolve.Config
	HiddenSize int
	Seed       int64
}

// Model implements evolve.FitnessModel with online-trained preference
// networks. SendFeedback never blocks on training; a background worker
// does the heavy lifting. Close flushes and persists state.
type Model struct {
	netMu     sync.Mutex
	genomeNet *mlp.MLP
	audioNet  *mlp.MLP

	cache *feature.Cache
	cfg   evolve.Config

	dir         string
	weightsPath string

	dataset *datasetWriter

	queueMu sync.Mutex
	queue   []trainingSample
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}

	replay replayStore

	stateMu     sync.Mutex
	sampleCount int
	lastErr     error

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewModel creates the model, loading persisted weights and opening the
// dataset. A weights file with a mismatched architecture is ignored and
// both networks start from fresh initialization.
func NewModel(opts Options) (*Model, error) {
	hidden := opts.HiddenSize
	if hidden <= 0 {
		hidden = DefaultHiddenSize
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	m := &Model{
		genomeNet:   mlp.New(evolve.ParamCount, hidden, rng),
		audioNet:    mlp.New(feature.VectorSize, hidden, rng),
		cache:       opts.Cache,
		cfg:         opts.Config,
		dir:         opts.Dir,
		weightsPath: filepath.Join(opts.Dir, weightsFileName),
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		rng:         rng,
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}

	m.loadWeights()

	dataset, err := newDatasetWriter(filepath.Join(opts.Dir, datasetFileName))
	if err != nil {
		return nil, err
	}
	m.dataset = dataset

	go m.trainLoop()
	return m, nil
}

// Evaluate predicts the user's preference for genome, consulting the
// network the configured input mode selects. The audio path degrades to
// the genome prediction if features cannot be produced.
func (m *Model) Evaluate(genome []float64) float64 {
	genomePred, audioPred := m.predictions(genome, true)
	if m.cfg.InputMode == evolve.InputAudio {
		return audioPred
	}
	return genomePred
}

// SendFeedback queues the sample for background training and returns
// immediately.
func (m *Model) SendFeedback(genome []float64, fb evolve.Feedback) {
	sample := trainingSample{
		genome:   append([]float64(nil), genome...),
		feedback: fb,
	}

	m.queueMu.Lock()
	m.queue = append(m.queue, sample)
	m.queueMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// SampleCount returns how many feedback samples have been trained.
func (m *Model) SampleCount() int {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.sampleCount
}

// Err returns the most recent background error, if any.
func (m *Model) Err() error {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.lastErr
}

// Close drains the training queue, persists weights, and closes the
// dataset.
func (m *Model) Close() error {
	close(m.stop)
	<-m.done

	err := m.saveWeights()
	if cerr := m.dataset.Close(); err == nil {
		err = cerr
	}
	return err
}

// predictions runs both networks. Audio features come from the cache;
// when render is false the audio net only predicts on already-cached
// features and otherwise mirrors the genome prediction.
func (m *Model) predictions(genome []float64, render bool) (genomePred, audioPred float64) {
	var features []float64
	if m.cache != nil && (render || m.cache.HasCached(genome)) {
		if f, err := m.cache.Features(genome); err == nil {
			features = f
		} else {
			m.setErr(err)
		}
	}

	m.netMu.Lock()
	defer m.netMu.Unlock()
	genomePred = m.genomeNet.Predict(genome)
	if features != nil {
		audioPred = m.audioNet.Predict(features)
	} else {
		audioPred = genomePred
	}
	return genomePred, audioPred
}

func (m *Model) trainLoop() {
	defer close(m.done)
	for {
		select {
		case <-m.wake:
			m.drainQueue()
		case <-m.stop:
			// Final drain so no accepted feedback is lost.
			m.drainQueue()
			return
		}
	}
}

func (m *Model) drainQueue() {
	for {
		m.queueMu.Lock()
		if len(m.queue) == 0 {
			m.queueMu.Unlock()
			return
		}
		sample := m.queue[0]
		m.queue = m.queue[1:]
		m.queueMu.Unlock()

		m.trainSample(sample)
	}
}

// trainSample is one full training step: pre-training predictions for
// the dataset row, primary updates on both networks, a replay pass, the
// CSV append, and debounced weight persistence.
func (m *Model) trainSample(sample trainingSample) {
	genomePred, audioPred := m.predictions(sample.genome, true)

	var features []float64
	if m.cache != nil {
		if f, err := m.cache.Features(sample.genome); err == nil {
			features = f
		} else {
			m.setErr(err)
		}
	}

	weight := sample.feedback.Weight()

	m.netMu.Lock()
	m.genomeNet.Train(sample.genome, sample.feedback.Rating, learningRate, weight)
	if features != nil {
		m.audioNet.Train(features, sample.feedback.Rating, learningRate, weight)
	}
	m.netMu.Unlock()

	m.replayAdd(sample)
	m.replayTrain()

	m.stateMu.Lock()
	m.sampleCount++
	count := m.sampleCount
	m.stateMu.Unlock()

	if err := m.dataset.Append(datasetRow{
		genome:      sample.genome,
		rating:      sample.feedback.Rating,
		playTime:    sample.feedback.PlayTimeSeconds,
		sampleIndex: count,
		genomePred:  genomePred,
		audioPred:   audioPred,
		configFlags: m.cfg.Flags(),
		timestamp:   time.Now(),
		weight:      weight,
	}); err != nil {
		m.setErr(err)
	}

	if count%persistEvery == 0 {
		if err := m.saveWeights(); err != nil {
			m.setErr(err)
		}
	}
}

func (m *Model) setErr(err error) {
	m.stateMu.Lock()
	m.lastErr = err
	m.stateMu.Unlock()
}
