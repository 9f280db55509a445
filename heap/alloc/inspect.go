package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Stats is a snapshot of allocator counters and occupancy.
type Stats struct {
	AllocCalls       int
	FreeCalls        int
	GrowCalls        int
	GrowFailures     int
	GrowUnits        int64
	ExactFits        int
	Splits           int
	CoalesceForward  int
	CoalesceBackward int
	ScanSteps        int64

	RegionUnits uint64 // units obtained from the region
	InUseUnits  uint64 // units held by live allocations
	FreeUnits   uint64 // units on the free list
	FreeBlocks  int    // blocks on the free list, sentinel excluded
}

// Stats returns current allocator statistics.
func (a *Allocator) Stats() Stats {
	s := Stats{
		AllocCalls:       a.stats.AllocCalls,
		FreeCalls:        a.stats.FreeCalls,
		GrowCalls:        a.stats.GrowCalls,
		GrowFailures:     a.stats.GrowFailures,
		GrowUnits:        a.stats.GrowUnits,
		ExactFits:        a.stats.ExactFits,
		Splits:           a.stats.Splits,
		CoalesceForward:  a.stats.CoalesceForward,
		CoalesceBackward: a.stats.CoalesceBackward,
		ScanSteps:        a.stats.ScanSteps,
		RegionUnits:      a.regionUnits,
		InUseUnits:       a.inUseUnits,
	}
	for _, b := range a.FreeBlocks() {
		s.FreeUnits += uint64(b.Units)
		s.FreeBlocks++
	}
	return s
}

// RegionUnits returns the number of units the allocator has obtained from its
// region. It never decreases.
func (a *Allocator) RegionUnits() uint64 {
	return a.regionUnits
}

// Cursor returns the ref of the free node the next search starts after.
func (a *Allocator) Cursor() Ref {
	return a.freep
}

// FreeBlocks lists the free blocks in list order starting after the sentinel,
// which is address order. Returns nil before the first Alloc.
func (a *Allocator) FreeBlocks() []Block {
	if !a.ready {
		return nil
	}
	var blocks []Block
	limit := a.regionUnits + 1
	for p := a.next(sentinel); p != sentinel && uint64(len(blocks)) < limit; p = a.next(p) {
		blocks = append(blocks, Block{Ref: p, Units: a.size(p)})
	}
	return blocks
}

// Check walks the free list from the sentinel and verifies:
//   - every block lies inside the region and has a non-zero size
//   - refs ascend with exactly one wrap edge, back to the sentinel
//   - no two free blocks overlap or touch
//   - free units plus in-use units equal the units obtained from the region
//
// Violations wrap ErrCorrupt.
func (a *Allocator) Check() error {
	if !a.ready {
		return nil
	}

	maxRef := uint64(len(a.mem)>>format.UnitShift) + 1 // one past the last ref
	limit := a.regionUnits + 1

	var (
		freeUnits uint64
		nodes     uint64
		wraps     int
		prev      = sentinel
	)
	for p := a.next(sentinel); ; p = a.next(p) {
		if p <= prev {
			wraps++
		}
		if p == sentinel {
			break
		}
		nodes++
		if nodes > limit {
			return fmt.Errorf("%w: list does not return to the sentinel after %d nodes", ErrCorrupt, nodes)
		}

		sz := a.size(p)
		if sz == 0 {
			return fmt.Errorf("%w: zero-size block at ref %d", ErrCorrupt, p)
		}
		if uint64(p)+uint64(sz) > maxRef {
			return fmt.Errorf("%w: block at ref %d (%d units) runs past region end", ErrCorrupt, p, sz)
		}
		if prev != sentinel && p > prev {
			end := uint64(prev) + uint64(a.size(prev))
			switch {
			case end > uint64(p):
				return fmt.Errorf("%w: block at ref %d overlaps block at ref %d", ErrCorrupt, prev, p)
			case end == uint64(p):
				return fmt.Errorf("%w: adjacent free blocks at refs %d and %d", ErrCorrupt, prev, p)
			}
		}

		freeUnits += uint64(sz)
		prev = p
	}

	if wraps != 1 {
		return fmt.Errorf("%w: %d wrap edges, want 1", ErrCorrupt, wraps)
	}
	if freeUnits+a.inUseUnits != a.regionUnits {
		return fmt.Errorf("%w: free %d + in use %d != region %d units",
			ErrCorrupt, freeUnits, a.inUseUnits, a.regionUnits)
	}
	return nil
}
