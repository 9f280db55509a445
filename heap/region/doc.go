// Package region provides growable memory regions for the heap allocator.
//
// A region is a contiguous span of bytes that only ever grows at its end.
// Grow(n) extends it by n bytes and returns the byte offset of the new span,
// the Go rendition of sbrk. Three implementations are provided:
//
//   - Mem: a heap-allocated byte slice, reallocated on growth, optionally capped
//   - Anon: an anonymous memory mapping with a fixed reservation; never moves
//   - File: a shared mapping of a file, grown by truncate and remap, with
//     range syncing for heap/dirty
//
// Regions are not thread-safe.
package region
