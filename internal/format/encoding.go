package format

import "encoding/binary"

// PutU32 writes v little-endian at b[off:off+4].
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a little-endian uint32 from b[off:off+4].
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// PutHeader stamps a full block header at byte offset off.
func PutHeader(b []byte, off int, size, next uint32) {
	PutU32(b, off+HeaderSizeOffset, size)
	PutU32(b, off+HeaderNextOffset, next)
}

// ReadHeader decodes the block header at byte offset off.
func ReadHeader(b []byte, off int) (size, next uint32) {
	return ReadU32(b, off+HeaderSizeOffset), ReadU32(b, off+HeaderNextOffset)
}
