// Package format defines the in-region layout of heap block headers. Higher
// level packages address blocks in units and go through these helpers for the
// byte-level encoding.
package format

const (
	// UnitSize is the allocation granularity in bytes. One unit holds a block
	// header, so every block size is a whole number of units.
	UnitSize = 8

	// UnitShift is log2(UnitSize).
	UnitShift = 3

	// UnitMask masks the sub-unit bits of a byte count.
	UnitMask = UnitSize - 1
)

// Header layout (little-endian, one unit):
//
//	0x00  uint32  size  block length in units, header included
//	0x04  uint32  next  ref of the next free block (free blocks only)
const (
	HeaderSizeOffset = 0x00
	HeaderNextOffset = 0x04
	HeaderSize       = UnitSize
)

// MaxUnits is the largest unit count a header can describe.
const MaxUnits = 1<<32 - 1
