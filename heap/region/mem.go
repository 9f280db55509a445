package region

import (
	"fmt"

	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/joshuapare/heapkit/internal/buf"
)

const (
	// memInitialCap is the backing capacity reserved on the first growth.
	memInitialCap = 64 << 10
)

// Mem is a region backed by an ordinary byte slice. Growth past the current
// capacity moves the data to a larger slice, so payload slices taken before a
// growth go stale.
type Mem struct {
	data  []byte
	limit int // 0 = unlimited
}

// NewMem creates an empty in-memory region. limit caps the region size in
// bytes; 0 means no cap.
func NewMem(limit int) *Mem {
	if limit < 0 {
		limit = 0
	}
	return &Mem{limit: limit}
}

// Grow extends the region by n bytes. The new bytes are not zeroed.
func (m *Mem) Grow(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: grow %d", ErrBadSize, n)
	}

	off := len(m.data)
	end, ok := buf.AddOverflowSafe(off, n)
	if !ok || (m.limit > 0 && end > m.limit) {
		return 0, fmt.Errorf("%w: %d + %d bytes exceeds limit %d", ErrExhausted, off, n, m.limit)
	}

	if end > cap(m.data) {
		ncap := max(end, 2*cap(m.data), memInitialCap)
		if m.limit > 0 {
			ncap = min(ncap, m.limit)
		}
		nbuf := dirtmake.Bytes(end, ncap)
		copy(nbuf, m.data)
		m.data = nbuf
		return off, nil
	}

	m.data = m.data[:end]
	return off, nil
}

// Bytes returns the region's current contents.
func (m *Mem) Bytes() []byte { return m.data }

// Len returns the region size in bytes.
func (m *Mem) Len() int { return len(m.data) }

// Limit returns the size cap, 0 when unlimited.
func (m *Mem) Limit() int { return m.limit }
