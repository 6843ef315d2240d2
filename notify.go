package formz

import "sync"

// notifier delivers published states to listeners outside the store lock,
// in publication order. Deliveries are queued while the store is locked and
// drained by flush once it is released. Only one goroutine drains at a
// time; a listener that triggers further publications on the same store
// has them queued and delivered after it returns.
type notifier struct {
	mu      sync.Mutex
	queue   []func()
	deliver sync.Mutex
}

// enqueue schedules fn. Callers hold the store lock, so the queue order is
// the publication order.
func (n *notifier) enqueue(fn func()) {
	n.mu.Lock()
	n.queue = append(n.queue, fn)
	n.mu.Unlock()
}

func (n *notifier) pop() (func(), bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.queue) == 0 {
		return nil, false
	}
	fn := n.queue[0]
	n.queue[0] = nil
	n.queue = n.queue[1:]
	return fn, true
}

func (n *notifier) pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue) > 0
}

// flush drains the queue. It must be called without the store lock held.
// If another call is already draining, flush returns at once and that call
// delivers whatever was queued.
func (n *notifier) flush() {
	for {
		if !n.deliver.TryLock() {
			return
		}
		for {
			fn, ok := n.pop()
			if !ok {
				break
			}
			fn()
		}
		n.deliver.Unlock()
		// An enqueue may have lost the TryLock race after the last pop.
		if !n.pending() {
			return
		}
	}
}
