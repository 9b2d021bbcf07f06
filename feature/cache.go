package feature

import (
	"container/list"
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"
)

// DefaultCacheCapacity bounds how many genomes keep their features
// resident. Rendering plus extraction costs tens of milliseconds per
// genome, so even a small cache pays for itself during replay training.
const DefaultCacheCapacity = 128

// Normalization ranges per feature family, chosen from observed value
// distributions across the synth's parameter space.
const (
	mfccMin     = -50.0
	mfccMax     = 50.0
	centroidMin = 100.0
	centroidMax = 8000.0
	attackMin   = 0.0
	attackMax   = 0.5
	rmsMin      = 0.0
	rmsMax      = 0.3
)

// Source renders a genome and extracts its raw feature vector. The cache
// owns normalization; sources return extractor-unit values.
type Source interface {
	RawFeatures(genome []float64) ([]float64, error)
	SetSampleRate(rate float64) error
}

type cacheEntry struct {
	key      uint64
	features []float64
}

// Cache is a strict-LRU map from genome content hash to normalized
// feature vector. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	source     Source
	sampleRate float64
	capacity   int
	entries    map[uint64]*list.Element
	order      *list.List // front = most recently used
	hits       int
	misses     int
}

// NewCache wraps source with an LRU of the given capacity; capacity <= 0
// selects DefaultCacheCapacity.
func NewCache(source Source, sampleRate float64, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		source:     source,
		sampleRate: sampleRate,
		capacity:   capacity,
		entries:    make(map[uint64]*list.Element),
		order:      list.New(),
	}
}

// Features returns the normalized feature vector for genome, rendering
// and extracting on a miss. The returned slice is a copy.
func (c *Cache) Features(genome []float64) ([]float64, error) {
	key := hashGenome(genome)

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.hits++
		c.order.MoveToFront(el)
		out := append([]float64(nil), el.Value.(*cacheEntry).features...)
		c.mu.Unlock()
		return out, nil
	}
	c.misses++
	c.mu.Unlock()

	// Render outside the lock; extraction dominates the cost here.
	raw, err := c.source.RawFeatures(genome)
	if err != nil {
		return nil, err
	}
	features := Normalize(raw)

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		// Raced with another miss for the same genome.
		c.order.MoveToFront(el)
	} else {
		if c.order.Len() >= c.capacity {
			oldest := c.order.Back()
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
		c.entries[key] = c.order.PushFront(&cacheEntry{key: key, features: features})
	}
	c.mu.Unlock()

	return append([]float64(nil), features...), nil
}

// HasCached reports whether genome's features are resident, without
// touching recency order.
func (c *Cache) HasCached(genome []float64) bool {
	key := hashGenome(genome)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// SetSampleRate invalidates the cache when the rate changes by more than
// 1 Hz, since every cached feature is rate-dependent.
func (c *Cache) SetSampleRate(rate float64) error {
	c.mu.Lock()
	if math.Abs(rate-c.sampleRate) < 1.0 {
		c.mu.Unlock()
		return nil
	}
	c.sampleRate = rate
	c.mu.Unlock()

	if err := c.source.SetSampleRate(rate); err != nil {
		return err
	}
	c.Clear()
	return nil
}

// Clear drops all entries and resets the hit/miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*list.Element)
	c.order.Init()
	c.hits = 0
	c.misses = 0
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the hit and miss counts since the last Clear.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// hashGenome keys on the exact bit patterns of the parameters, so any
// representable difference yields a distinct key.
func hashGenome(genome []float64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range genome {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// Normalize maps a raw feature vector into [0,1] per family, clamping
// outliers. Short vectors are padded with zeros.
func Normalize(raw []float64) []float64 {
	out := make([]float64, VectorSize)
	copy(out, raw)
	for i := 0; i < NumMFCC; i++ {
		out[IdxMFCCMean+i] = normalizeValue(out[IdxMFCCMean+i], mfccMin, mfccMax)
		out[IdxMFCCStd+i] = normalizeValue(out[IdxMFCCStd+i], 0.0, mfccMax)
	}
	out[IdxCentroidMean] = normalizeValue(out[IdxCentroidMean], centroidMin, centroidMax)
	out[IdxCentroidStd] = normalizeValue(out[IdxCentroidStd], 0.0, centroidMax-centroidMin)
	out[IdxAttack] = normalizeValue(out[IdxAttack], attackMin, attackMax)
	out[IdxRMS] = normalizeValue(out[IdxRMS], rmsMin, rmsMax)
	return out
}

func normalizeValue(v, min, max float64) float64 {
	n := (v - min) / (max - min)
	if n < 0.0 {
		return 0.0
	}
	if n > 1.0 {
		return 1.0
	}
	return n
}
