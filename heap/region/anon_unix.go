//go:build linux || darwin

package region

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Anon is a region carved from one anonymous private mapping. The whole
// reservation is mapped up front and Grow only moves the break, so the backing
// memory never moves and payload slices stay valid.
type Anon struct {
	mem []byte // full reservation
	brk int    // bytes handed out
}

// NewAnon maps reserve bytes, rounded up to the page size, of anonymous
// memory. Pages are only committed by the kernel when touched.
func NewAnon(reserve int) (*Anon, error) {
	if reserve <= 0 {
		return nil, fmt.Errorf("%w: reserve %d", ErrBadSize, reserve)
	}
	page := os.Getpagesize()
	size, ok := buf.AddOverflowSafe(reserve, page-1)
	if !ok {
		return nil, fmt.Errorf("%w: reserve %d", ErrBadSize, reserve)
	}
	size = size / page * page

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("region: mmap %d bytes: %w", size, err)
	}
	return &Anon{mem: mem}, nil
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

// Close unmaps the reservation. Further Grow calls return ErrClosed.
func (a *Anon) Close() error {
	if a.mem == nil {
		return nil
	}
	err := unix.Munmap(a.mem)
	a.mem = nil
	a.brk = 0
	return err
}
