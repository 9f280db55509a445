package alloc

import "sync"

// Locked serializes every operation on an Allocator behind a mutex so it can
// be shared between goroutines.
//
// Payload slices escape the lock. With a region that moves on growth (Mem,
// File), a write through a slice can race with another goroutine's growth and
// be lost; use Update for such regions, or back the allocator with Anon.
type Locked struct {
	mu sync.Mutex
	a  *Allocator
}

// NewLocked creates a mutex-guarded allocator over r.
func NewLocked(r Region, opts *Options) *Locked {
	return &Locked{a: New(r, opts)}
}

// Alloc is the synchronized form of Allocator.Alloc.
func (l *Locked) Alloc(n int) (Ptr, []byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Alloc(n)
}

// Free is the synchronized form of Allocator.Free.
func (l *Locked) Free(p Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.a.Free(p)
}

// Payload is the synchronized form of Allocator.Payload.
func (l *Locked) Payload(p Ptr) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Payload(p)
}

// Update calls fn with the payload of p while holding the lock.
func (l *Locked) Update(p Ptr, fn func(payload []byte)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.a.Payload(p))
}

// Stats is the synchronized form of Allocator.Stats.
func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Stats()
}

// FreeBlocks is the synchronized form of Allocator.FreeBlocks.
func (l *Locked) FreeBlocks() []Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.FreeBlocks()
}

// Check is the synchronized form of Allocator.Check.
func (l *Locked) Check() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Check()
}
