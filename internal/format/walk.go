package format

import (
	"errors"
	"fmt"
)

// ErrBadBlock is returned by WalkBlocks when a header cannot be part of a
// well-formed region.
var ErrBadBlock = errors.New("format: bad block header")

// WalkBlocks visits every block of a region image in address order. Blocks
// tile the region, so each header's size locates the next one. The next word
// of each header is passed through as stored; it is only meaningful for free
// blocks.
func WalkBlocks(b []byte, fn func(off int, size, next uint32) error) error {
	if len(b)&UnitMask != 0 {
		return fmt.Errorf("%w: region length %d not a multiple of %d", ErrBadBlock, len(b), UnitSize)
	}
	for off := 0; off < len(b); {
		size, next := ReadHeader(b, off)
		if size == 0 {
			return fmt.Errorf("%w: zero size at offset %#x", ErrBadBlock, off)
		}
		end := uint64(off) + uint64(size)<<UnitShift
		if end > uint64(len(b)) {
			return fmt.Errorf("%w: block at %#x (%d units) runs past end %#x", ErrBadBlock, off, size, len(b))
		}
		if err := fn(off, size, next); err != nil {
			return err
		}
		off = int(end)
	}
	return nil
}
