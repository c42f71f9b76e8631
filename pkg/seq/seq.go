// Package seq hands out monotonically increasing request numbers per resource
// so that a response can be checked for staleness before it is applied.
//
// A caller draws a number with Begin before dispatching a request and, once the
// response arrives, commits its result only if IsLatest still holds. Numbers
// are global across keys, so ordering between resources is also well defined.
package seq

import "sync"

// Tracker records the latest number dispatched for each resource key.
// The zero value is ready to use.
type Tracker struct {
	mu     sync.Mutex
	next   uint64
	latest map[string]uint64
}

// Begin allocates the next number and records it as the latest for key.
func (t *Tracker) Begin(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.latest == nil {
		t.latest = make(map[string]uint64)
	}
	t.next++
	t.latest[key] = t.next
	return t.next
}

// Next allocates a number without recording it for any key. It orders events
// against numbers handed out by Begin.
func (t *Tracker) Next() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	return t.next
}

// IsLatest reports whether n is still the latest number dispatched for key.
func (t *Tracker) IsLatest(key string, n uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.latest[key] == n
}

// Reset forgets every key. Numbers keep increasing, so a request that began
// before Reset can never be mistaken for one that began after it.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.latest = nil
}
