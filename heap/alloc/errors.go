package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block was large enough and the region
	// could not be grown, or that the request cannot be represented in units.
	ErrNoSpace = errors.New("alloc: out of memory")

	// ErrInvalidSize indicates a request for zero or a negative number of bytes.
	ErrInvalidSize = errors.New("alloc: size must be positive")

	// ErrMisaligned indicates the region handed out a span that does not start
	// on a unit boundary.
	ErrMisaligned = errors.New("alloc: region span not unit aligned")

	// ErrCorrupt is returned by Check when the free list violates an invariant.
	ErrCorrupt = errors.New("alloc: free list corrupt")
)
