//go:build !linux && !darwin

package region

import (
	"fmt"

	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Anon is a fixed reservation allocated once up front. On platforms without
// anonymous mmap support it lives on the Go heap; the backing memory still
// never moves.
type Anon struct {
	mem []byte
	brk int
}

// NewAnon reserves reserve bytes.
func NewAnon(reserve int) (*Anon, error) {
	if reserve <= 0 {
		return nil, fmt.Errorf("%w: reserve %d", ErrBadSize, reserve)
	}
	return &Anon{mem: dirtmake.Bytes(reserve, reserve)}, nil
}

// Grow moves the break forward by n bytes.
func (a *Anon) Grow(n int) (int, error) {
	if a.mem == nil {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: grow %d", ErrBadSize, n)
	}
	end, ok := buf.AddOverflowSafe(a.brk, n)
	if !ok || end > len(a.mem) {
		return 0, fmt.Errorf("%w: %d + %d bytes exceeds reservation %d", ErrExhausted, a.brk, n, len(a.mem))
	}
	off := a.brk
	a.brk = end
	return off, nil
}

// Bytes returns the handed-out part of the reservation.
func (a *Anon) Bytes() []byte { return a.mem[:a.brk:a.brk] }

// Cap returns the reservation size in bytes.
func (a *Anon) Cap() int { return len(a.mem) }

// Close releases the reservation.
func (a *Anon) Close() error {
	a.mem = nil
	a.brk = 0
	return nil
}
