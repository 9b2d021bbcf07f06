package evolve

import "sync"

// Bridge is the single point of data shared between the search goroutine
// and the consumer. It is a mailbox: at most one unread candidate is
// pending, and a later Push overwrites an unread one. The engine observes
// HasData as backpressure before producing, which keeps overwrites rare;
// readers never see a torn candidate.
type Bridge struct {
	mu      sync.Mutex
	params  []float64
	fitness float64
	ready   bool
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Push stores a candidate, replacing any unread one. The parameter vector
// is copied.
func (b *Bridge) Push(params []float64, fitness float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.params = append(b.params[:0], params...)
	b.fitness = fitness
	b.ready = true
}

// Pop retrieves the pending candidate without blocking. It returns
// ok=false when no unread candidate exists.
func (b *Bridge) Pop() (params []float64, fitness float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready {
		return nil, 0, false
	}
	params = append([]float64(nil), b.params...)
	fitness = b.fitness
	b.ready = false
	return params, fitness, true
}

// HasData reports whether an unread candidate is pending.
func (b *Bridge) HasData() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// IsEmpty is the negation of HasData.
func (b *Bridge) IsEmpty() bool {
	return !b.HasData()
}

// Clear discards any pending candidate.
func (b *Bridge) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ready = false
}
