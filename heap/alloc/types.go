package alloc

import "log/slog"

// Ref is the unit index of a block header. Ref 0 is the sentinel; the block at
// region byte offset o has Ref o/UnitSize + 1, so ref order is address order.
type Ref uint32

// Ptr is the handle Alloc returns: the unit index of the first payload unit,
// one past the block's header.
type Ptr uint32

// sentinel is the ref of the zero-size anchor node. It lives in the Allocator,
// not in the region.
const sentinel Ref = 0

// DefaultMinGrowUnits is the smallest growth request, in units, sent to the
// region.
const DefaultMinGrowUnits = 4096

// Block describes one free block.
type Block struct {
	Ref   Ref    // header ref
	Units uint32 // size in units, header included
}

// Options configures an Allocator. A nil *Options selects the defaults.
type Options struct {
	// MinGrowUnits is the floor applied to every growth request. Zero selects
	// DefaultMinGrowUnits.
	MinGrowUnits uint32

	// Dirty receives the byte range of every header write. May be nil.
	Dirty DirtyTracker

	// Logger receives growth and out-of-memory records. Nil selects the
	// package logger from internal/logger.
	Logger *slog.Logger
}

// header is the in-struct copy of the sentinel.
type header struct {
	size uint32
	next Ref
}
