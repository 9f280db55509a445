package alloc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Allocator is a next-fit allocator over an address-ordered circular free list.
//   - Headers and free-list links live inside the region
//   - The sentinel and the cursor live in the struct
//   - Growth goes through the same release path as Free
type Allocator struct {
	r   Region
	dt  DirtyTracker
	log *slog.Logger

	// mem is r.Bytes() as of the last growth.
	mem []byte

	base  header // sentinel node, ref 0
	freep Ref    // cursor: the free node most recently consulted
	ready bool   // sentinel initialized

	minGrow uint32

	regionUnits uint64 // units obtained from the region
	inUseUnits  uint64 // units held by live allocations

	stats allocatorStats

	// Test hook: called after every successful growth (nil in production)
	onGrow func(units uint32)
}

// allocatorStats holds internal allocator counters.
type allocatorStats struct {
	AllocCalls       int   // Total Alloc() calls
	FreeCalls        int   // Total Free() calls
	GrowCalls        int   // Successful region growths
	GrowFailures     int   // Growths the region refused
	GrowUnits        int64 // Units added by growth
	ExactFits        int   // Allocations that consumed a whole free block
	Splits           int   // Allocations carved from the tail of a larger block
	CoalesceForward  int   // Merges with the following free block
	CoalesceBackward int   // Merges with the preceding free block
	ScanSteps        int64 // Free-list nodes visited by Alloc
}

// New creates an allocator over r. Nothing is requested from the region until
// the first Alloc.
func New(r Region, opts *Options) *Allocator {
	if opts == nil {
		opts = &Options{}
	}

	a := &Allocator{
		r:       r,
		dt:      opts.Dirty,
		log:     opts.Logger,
		mem:     r.Bytes(),
		minGrow: opts.MinGrowUnits,
	}
	if a.log == nil {
		a.log = logger.L
	}
	if a.minGrow == 0 {
		a.minGrow = DefaultMinGrowUnits
	}
	return a
}

// Alloc reserves at least n bytes and returns the payload handle and a slice
// over the payload. The slice is exactly the block's capacity, which may exceed
// n by up to UnitSize-1 bytes.
func (a *Allocator) Alloc(n int) (Ptr, []byte, error) {
	a.stats.AllocCalls++

	if n <= 0 {
		return 0, nil, ErrInvalidSize
	}
	units, ok := format.BlockUnits(n)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %d bytes exceeds block size limit", ErrNoSpace, n)
	}
	if units > a.minGrow {
		a.log.Debug("alloc: large request", "bytes", n, "units", units)
	}

	a.init()

	prev := a.freep
	for p := a.next(prev); ; prev, p = p, a.next(p) {
		a.stats.ScanSteps++

		if sz := a.size(p); sz >= units {
			if sz == units {
				a.setNext(prev, a.next(p))
				a.stats.ExactFits++
			} else {
				a.setSize(p, sz-units)
				p += Ref(sz - units)
				a.setSize(p, units)
				a.stats.Splits++
			}
			a.freep = prev
			a.inUseUnits += uint64(units)

			ptr := Ptr(p + 1)
			return ptr, a.payload(p, units), nil
		}

		if p == a.freep {
			// Wrapped around the whole list without a fit.
			q, err := a.morecore(units)
			if err != nil {
				a.log.Warn("alloc: out of memory", "bytes", n, "units", units, "err", err)
				return 0, nil, err
			}
			p = q
		}
	}
}

// Free returns a block obtained from Alloc to the free list and merges it with
// any free neighbour it touches. The handle is not validated.
func (a *Allocator) Free(p Ptr) {
	a.stats.FreeCalls++
	a.init()

	bp := Ref(p) - 1
	a.inUseUnits -= uint64(a.size(bp))
	a.release(bp)
}

// Payload resolves a handle against the region's current backing memory.
// Returns nil when the handle is outside the region.
func (a *Allocator) Payload(p Ptr) []byte {
	if p == 0 {
		return nil
	}
	bp := Ref(p) - 1
	off := a.offset(bp)
	if !buf.Has(a.mem, off, format.HeaderSize) {
		return nil
	}
	return a.payload(bp, a.size(bp))
}

// Units returns the size in units, header included, of the block behind p.
func (a *Allocator) Units(p Ptr) uint32 {
	return a.size(Ref(p) - 1)
}

// init lazily installs the self-referencing sentinel as the cursor.
func (a *Allocator) init() {
	if a.ready {
		return
	}
	a.base = header{size: 0, next: sentinel}
	a.freep = sentinel
	a.ready = true
}

func (a *Allocator) payload(bp Ref, units uint32) []byte {
	b, ok := buf.Slice(a.mem, a.offset(bp)+format.HeaderSize, format.PayloadBytes(units))
	if !ok {
		return nil
	}
	return b
}

// ============================================================================
// Header access
// ============================================================================

// offset converts a non-sentinel ref to its region byte offset.
func (a *Allocator) offset(r Ref) int {
	return int(r-1) << format.UnitShift
}

func (a *Allocator) size(r Ref) uint32 {
	if r == sentinel {
		return a.base.size
	}
	return format.ReadU32(a.mem, a.offset(r)+format.HeaderSizeOffset)
}

func (a *Allocator) next(r Ref) Ref {
	if r == sentinel {
		return a.base.next
	}
	return Ref(format.ReadU32(a.mem, a.offset(r)+format.HeaderNextOffset))
}

func (a *Allocator) setSize(r Ref, v uint32) {
	if r == sentinel {
		a.base.size = v
		return
	}
	off := a.offset(r)
	format.PutU32(a.mem, off+format.HeaderSizeOffset, v)
	a.markDirty(off)
}

func (a *Allocator) setNext(r, v Ref) {
	if r == sentinel {
		a.base.next = v
		return
	}
	off := a.offset(r)
	format.PutU32(a.mem, off+format.HeaderNextOffset, uint32(v))
	a.markDirty(off)
}

func (a *Allocator) markDirty(off int) {
	if a.dt != nil {
		a.dt.Add(off, format.HeaderSize)
	}
}
