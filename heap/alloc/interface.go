package alloc

import "github.com/joshuapare/heapkit/heap/dirty"

// DirtyTracker is a type alias for the canonical interface defined in heap/dirty.
type DirtyTracker = dirty.DirtyTracker

// Region is the growth collaborator the allocator draws memory from.
//
// Implementations:
//   - region.Mem: heap-backed byte slice, optionally capped
//   - region.Anon: anonymous mapping with a fixed reservation
//   - region.File: memory-mapped file grown by truncate and remap
type Region interface {
	// Grow extends the region by n bytes and returns the byte offset at which
	// the new span starts. Spans are contiguous with what came before. An error
	// leaves the region unchanged.
	Grow(n int) (int, error)

	// Bytes returns the current backing memory. The slice may change after a
	// successful Grow.
	Bytes() []byte
}
