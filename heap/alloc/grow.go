package alloc

import (
	"fmt"
	"math"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// morecore asks the region for at least units units, stamps the new span as a
// single block and hands it to the free list through release. It returns the
// cursor so Alloc can keep scanning from there. On failure nothing in the
// allocator is modified.
func (a *Allocator) morecore(units uint32) (Ref, error) {
	nu := max(units, a.minGrow)

	n, ok := buf.MulUnits(nu, format.UnitSize)
	if !ok {
		a.stats.GrowFailures++
		return 0, fmt.Errorf("%w: grow of %d units overflows", ErrNoSpace, nu)
	}

	off, err := a.r.Grow(n)
	if err != nil {
		a.stats.GrowFailures++
		return 0, fmt.Errorf("%w: grow %d units: %w", ErrNoSpace, nu, err)
	}
	if off < 0 || off&format.UnitMask != 0 {
		a.stats.GrowFailures++
		return 0, fmt.Errorf("%w: offset %d", ErrMisaligned, off)
	}

	// The ref one past the new block must still fit in a Ref, otherwise the
	// end-of-block comparison in release would wrap onto the sentinel.
	first := uint64(off>>format.UnitShift) + 1
	if first+uint64(nu) > math.MaxUint32 {
		a.stats.GrowFailures++
		return 0, fmt.Errorf("%w: region exceeds %d units", ErrNoSpace, uint64(math.MaxUint32))
	}

	a.mem = a.r.Bytes()
	bp := Ref(first)
	a.setSize(bp, nu)

	a.regionUnits += uint64(nu)
	a.stats.GrowCalls++
	a.stats.GrowUnits += int64(nu)

	a.log.Debug("alloc: grew region",
		"units", nu,
		"requested", units,
		"offset", off,
		"region_units", a.regionUnits,
	)

	a.release(bp)

	if a.onGrow != nil {
		a.onGrow(nu)
	}

	return a.freep, nil
}
