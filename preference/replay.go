package preference

// Replay state lives on the training goroutine only; no locking needed
// beyond the network mutex taken while training.
type replayStore struct {
	samples []trainingSample
	next    int
}

func (m *Model) replayAdd(sample trainingSample) {
	if len(m.replay.samples) < replayCapacity {
		m.replay.samples = append(m.replay.samples, sample)
		return
	}
	m.replay.samples[m.replay.next] = sample
	m.replay.next = (m.replay.next + 1) % replayCapacity
}

// replayTrain re-trains on a random subset of buffered samples so the
// networks do not overfit to the most recent feedback. The audio net
// only sees samples whose features are already cached; replay must not
// trigger synthesis.
func (m *Model) replayTrain() {
	n := len(m.replay.samples)
	if n == 0 {
		return
	}
	batch := replayBatchSize
	if batch > n {
		batch = n
	}

	m.rngMu.Lock()
	indices := m.rng.Perm(n)
	m.rngMu.Unlock()

	for _, idx := range indices[:batch] {
		sample := m.replay.samples[idx]
		weight := sample.feedback.Weight()

		var features []float64
		if m.cache != nil && m.cache.HasCached(sample.genome) {
			if f, err := m.cache.Features(sample.genome); err == nil {
				features = f
			}
		}

		m.netMu.Lock()
		m.genomeNet.Train(sample.genome, sample.feedback.Rating, learningRate, weight)
		if features != nil {
			m.audioNet.Train(features, sample.feedback.Rating, learningRate, weight)
		}
		m.netMu.Unlock()
	}
}
