package pixel

import "sync"

// Queue is the ordered pixel list of one drawing job. Replace and Snapshot
// copy, so the queue never aliases a caller's slice.
type Queue struct {
	mu    sync.RWMutex
	items []Pixel
}

// Replace swaps the queue contents for a copy of list.
func (q *Queue) Replace(list []Pixel) {
	c := Clone(list)
	q.mu.Lock()
	q.items = c
	q.mu.Unlock()
}

// Snapshot returns a copy of the queued pixels.
func (q *Queue) Snapshot() []Pixel {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return Clone(q.items)
}

// Len returns the number of queued pixels.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}
