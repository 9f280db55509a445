// Package alloc provides a next-fit free-list allocator over a single growable
// memory region.
//
// # Overview
//
// The allocator manages a Region, a contiguous span of bytes that can only be
// extended at its end. Memory is handed out in fixed 8-byte units; every block
// starts with a one-unit header holding its size in units. Free blocks are
// threaded into a circular, address-ordered singly-linked list whose links live
// in the free blocks' own headers, so the allocator keeps no bookkeeping outside
// the region apart from a zero-size sentinel node and a cursor.
//
// # Allocation
//
// Alloc rounds the request up to whole units plus one for the header and scans
// the free list starting just past the cursor (next-fit). An exact fit is
// unlinked; a larger block is shrunk in place and the allocation is carved from
// its tail, so the remainder keeps its position in the list. When a whole lap
// of the list finds nothing, the allocator grows the region by at least
// Options.MinGrowUnits units and continues.
//
//	a := alloc.New(region.NewMem(0), nil)
//
//	p, payload, err := a.Alloc(128)
//	if err != nil {
//	    return err // errors.Is(err, alloc.ErrNoSpace) when the region is exhausted
//	}
//	copy(payload, data)
//
//	a.Free(p)
//
// # Release and Coalescing
//
// Free walks from the cursor to the slot the block belongs to in address
// order, wrapping around the highest block, and merges it with the free
// neighbour directly after it and the one directly before it. No two free
// blocks are ever address-adjacent after Free returns. Memory is never returned
// to the region.
//
// Free performs no validation. Releasing a handle twice, or one that did not
// come from Alloc, corrupts the free list.
//
// # Handles and Payloads
//
// Alloc returns a Ptr, the unit index of the payload, together with a byte
// slice over the payload. Regions that reallocate or remap on growth (Mem,
// File) invalidate slices handed out before the growth; resolve the Ptr again
// with Payload. Anon regions never move.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Use Locked for concurrent callers.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap/region: Region implementations
//   - github.com/joshuapare/heapkit/heap/dirty: Tracks header writes for flushing
//   - github.com/joshuapare/heapkit/heap/replay: Runs alloc/free traces
package alloc
