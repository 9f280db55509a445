// Package dirty tracks which byte ranges of a heap region were modified and
// flushes them through a Syncer.
//
// # Usage
//
//	r, _ := region.CreateFile(path, 0)
//	t := dirty.NewTracker(r)
//	a := alloc.New(r, &alloc.Options{Dirty: t})
//	// ... Alloc / Free ...
//	err := t.Flush(ctx, dirty.FlushAuto)
//
// # Coalescing
//
// Add only appends. At flush time every range is widened to page boundaries,
// sorted, and merged with overlapping or adjacent neighbours:
//
//	Add(100, 8), Add(4090, 16), Add(20480, 8)
//	  -> [0, 8192) [20480, 24576)
//
// # Thread Safety
//
// A Tracker is not thread-safe. Share it only under the same lock that guards
// the allocator writing to it, such as alloc.Locked.
package dirty
