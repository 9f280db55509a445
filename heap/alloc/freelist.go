package alloc

// locate returns the free node bp belongs after in address order. Starting at
// the cursor it walks forward until bp lies strictly between a node and its
// successor, or until it reaches the wrap edge (a node whose successor is not
// above it) and bp is past the highest node or before the lowest.
func (a *Allocator) locate(bp Ref) Ref {
	p := a.freep
	for {
		next := a.next(p)
		if bp > p && bp < next {
			return p
		}
		if p >= next && (bp > p || bp < next) {
			return p
		}
		p = next
	}
}

// release links bp into the free list and coalesces it with the blocks
// directly after and directly before it. The cursor is left on the
// predecessor.
func (a *Allocator) release(bp Ref) {
	p := a.locate(bp)
	next := a.next(p)

	// Merge with successor.
	if bp+Ref(a.size(bp)) == next {
		a.setSize(bp, a.size(bp)+a.size(next))
		a.setNext(bp, a.next(next))
		a.stats.CoalesceForward++
	} else {
		a.setNext(bp, next)
	}

	// Merge with predecessor.
	if p+Ref(a.size(p)) == bp {
		a.setSize(p, a.size(p)+a.size(bp))
		a.setNext(p, a.next(bp))
		a.stats.CoalesceBackward++
	} else {
		a.setNext(p, bp)
	}

	a.freep = p
}
