package format

// AlignUnit rounds n up to the next multiple of UnitSize.
//
// Example:
//
//	AlignUnit(1)  = 8
//	AlignUnit(8)  = 8
//	AlignUnit(9)  = 16
func AlignUnit(n int) int {
	return (n + UnitMask) &^ UnitMask
}

// BlockUnits returns the number of units a block needs to carry n payload
// bytes: ceil(n / UnitSize) plus one unit for the header. The second result is
// false when the count does not fit in a header.
func BlockUnits(n int) (uint32, bool) {
	if n < 0 {
		return 0, false
	}
	payload := uint64(n) >> UnitShift
	if n&UnitMask != 0 {
		payload++
	}
	units := payload + 1
	if units > MaxUnits {
		return 0, false
	}
	return uint32(units), true
}

// PayloadBytes is the usable capacity of a block of the given size in units.
func PayloadBytes(units uint32) int {
	if units == 0 {
		return 0
	}
	return int(units-1) << UnitShift
}
