package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/region"
)

// ============================================================================
// Allocator Setup
// ============================================================================

// newTestAllocator returns an allocator over a fresh in-memory region. limit
// caps the region in bytes (0 = unlimited).
func newTestAllocator(t testing.TB, limit int, opts *Options) (*Allocator, *region.Mem) {
	t.Helper()
	r := region.NewMem(limit)
	return New(r, opts), r
}

// ============================================================================
// Mock Dirty Tracker
// ============================================================================

type dirtyRange struct {
	off, length int
}

// mockDirtyTracker records every Add call.
type mockDirtyTracker struct {
	ranges []dirtyRange
}

func (m *mockDirtyTracker) Add(off, length int) {
	m.ranges = append(m.ranges, dirtyRange{off: off, length: length})
}

// ============================================================================
// Grow Counting
// ============================================================================

// growCounter counts region growths through the onGrow hook.
type growCounter struct {
	calls int
	units []uint32
}

func setupGrowCounter(a *Allocator) *growCounter {
	gc := &growCounter{}
	a.onGrow = func(units uint32) {
		gc.calls++
		gc.units = append(gc.units, units)
	}
	return gc
}

// ============================================================================
// Invariants
// ============================================================================

// assertInvariants fails the test if the free list is inconsistent.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Check())
}

// mustAlloc allocates n bytes and fails the test on error.
func mustAlloc(t testing.TB, a *Allocator, n int) Ptr {
	t.Helper()
	p, payload, err := a.Alloc(n)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(payload), n)
	return p
}

// fill writes a pattern derived from seed into b.
func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

// verify reports whether b still holds the pattern written by fill.
func verify(b []byte, seed byte) bool {
	for i := range b {
		if b[i] != seed+byte(i) {
			return false
		}
	}
	return true
}
