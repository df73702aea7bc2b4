package worker

import "sync"

// ringCap bounds the snapshot queue. Three entries absorb a consumer
// that skips a frame or two without letting stale state accumulate.
const ringCap = 3

// Ring is a single-producer single-consumer snapshot queue where the
// newest entry wins. A full ring drops its oldest entry on publish, so
// the producer never blocks on a slow consumer.
type Ring struct {
	mu      sync.Mutex
	buf     [ringCap]*StateSnapshot
	head    int // next write position
	n       int
	dropped uint64
}

func NewRing() *Ring { return &Ring{} }

// Publish stores a snapshot, evicting the oldest when full.
func (r *Ring) Publish(s *StateSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n == ringCap {
		r.n--
		r.dropped++
	}
	r.buf[r.head] = s
	r.head = (r.head + 1) % ringCap
	r.n++
}

// Latest returns the most recent snapshot and discards everything
// older. Returns nil when no snapshot has arrived since the last call.
func (r *Ring) Latest() *StateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n == 0 {
		return nil
	}
	idx := (r.head - 1 + ringCap) % ringCap
	s := r.buf[idx]
	for i := range r.buf {
		r.buf[i] = nil
	}
	r.n = 0
	return s
}

// Len reports the number of unconsumed snapshots.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Dropped counts snapshots evicted before the consumer saw them.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
