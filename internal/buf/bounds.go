// Package buf contains overflow-checked arithmetic and bounds helpers shared
// by the region and allocator packages.
package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulUnits returns units*unitSize as an int, or ok = false if it does not fit.
// Both operands are non-negative in every caller.
func MulUnits(units uint32, unitSize int) (int, bool) {
	if unitSize <= 0 {
		return 0, false
	}
	if uint64(units) > uint64(math.MaxInt)/uint64(unitSize) {
		return 0, false
	}
	return int(units) * unitSize, true
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
