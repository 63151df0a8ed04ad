package transcript

import "sync"

// Dedup is the per-session set of segment identities already delivered to
// the response pipeline. A sliding-window poll can return already-seen
// segments at the tail; this keeps them from being reprocessed.
type Dedup struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedup creates an empty identity set.
func NewDedup() *Dedup {
	return &Dedup{seen: make(map[string]struct{})}
}

// Observe atomically checks-and-marks. Returns true exactly once per
// identity.
func (d *Dedup) Observe(identity string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[identity]; ok {
		return false
	}
	d.seen[identity] = struct{}{}
	return true
}

// Len returns the number of observed identities.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
