package dirty

// DirtyTracker is the minimal interface for recording modified byte ranges.
// The allocator calls Add for every header it writes; it never flushes.
type DirtyTracker interface {
	// Add marks [off, off+length) as dirty. off is a byte offset into the region.
	Add(off, length int)
}

// Syncer writes modified bytes of a region back to durable storage.
// region.File implements it.
type Syncer interface {
	// SyncRange flushes [off, off+length). off is page aligned.
	SyncRange(off, length int) error

	// Sync flushes file data and metadata needed to read it back.
	Sync() error
}
