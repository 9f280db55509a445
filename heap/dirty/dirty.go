package dirty

import (
	"context"
	"os"
	"sort"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64
)

// FlushMode controls durability of a Flush.
type FlushMode int

const (
	// FlushAuto syncs the dirty ranges and then the file.
	FlushAuto FlushMode = iota

	// FlushDataOnly syncs the dirty ranges only. The caller is expected to
	// call Sync on the region later, for example after batching several flushes.
	FlushDataOnly
)

// String returns the flag spelling of the mode.
func (m FlushMode) String() string {
	switch m {
	case FlushAuto:
		return "auto"
	case FlushDataOnly:
		return "data"
	default:
		return "unknown"
	}
}

// Range is a dirty byte range.
type Range struct {
	Off int64
	Len int64
}

// End returns the offset one past the last byte of the range.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges and flushes them through a Syncer.
//
// NOT thread-safe.
type Tracker struct {
	s        Syncer
	ranges   []Range // raw, coalesced at flush time
	pageSize int64
}

// NewTracker creates a tracker that flushes through s. s may be nil for a
// tracker that only records ranges; Flush then just clears them.
func NewTracker(s Syncer) *Tracker {
	return &Tracker{
		s:        s,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: int64(os.Getpagesize()),
	}
}

// Add records a dirty range. Empty and negative ranges are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 || off < 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Off: int64(off), Len: int64(length)})
}

// Len returns the number of raw ranges recorded since the last flush or reset.
func (t *Tracker) Len() int { return len(t.ranges) }

// PageSize returns the alignment used for coalescing.
func (t *Tracker) PageSize() int64 { return t.pageSize }

// Flush syncs every dirty page and clears the tracker.
//
// The context is checked before each range. If it is cancelled midway some
// ranges may already be on disk; the tracker keeps all ranges so a later Flush
// retries them.
func (t *Tracker) Flush(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.s == nil {
		t.ranges = t.ranges[:0]
		return nil
	}

	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.s.SyncRange(int(r.Off), int(r.Len)); err != nil {
			return err
		}
	}

	if mode != FlushDataOnly {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.s.Sync(); err != nil {
			return err
		}
	}

	t.ranges = t.ranges[:0]
	return nil
}

// Reset clears all tracked ranges without flushing.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// DebugRanges returns a copy of the raw, uncoalesced ranges.
func (t *Tracker) DebugRanges() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// DebugCoalescedRanges returns the page-aligned ranges the next Flush would sync.
func (t *Tracker) DebugCoalescedRanges() []Range {
	return t.coalesce()
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping or
// adjacent ones.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize
		end := r.End()
		if end%t.pageSize != 0 {
			end = (end/t.pageSize + 1) * t.pageSize
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	cur := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= cur.End() {
			cur.Len = max(cur.End(), next.End()) - cur.Off
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	return append(merged, cur)
}
