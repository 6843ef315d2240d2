package formz

import "sync"

// ring is a thread-safe ring buffer holding the most recent entries.
type ring[E any] struct {
	mu      sync.RWMutex
	entries []E
	size    int
	head    int
	count   int
}

// newRing creates a ring buffer with the given capacity.
// If size is 0 or negative, the ring is disabled and nil is returned;
// every method is safe on a nil ring.
func newRing[E any](size int) *ring[E] {
	if size <= 0 {
		return nil
	}
	return &ring[E]{
		entries: make([]E, size),
		size:    size,
	}
}

// push adds an entry, overwriting the oldest once full.
func (r *ring[E]) push(e E) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = e
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// all returns the retained entries, oldest first.
func (r *ring[E]) all() []E {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}

	out := make([]E, r.count)
	start := (r.head - r.count + r.size) % r.size
	for i := 0; i < r.count; i++ {
		out[i] = r.entries[(start+i)%r.size]
	}
	return out
}
