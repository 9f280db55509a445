// Package replay runs allocation traces against an allocator.
//
// Every allocation is filled with a byte derived from its op index. The fill
// is verified before the block is released and at every check op, so a
// misbehaving free list shows up as a corrupt payload rather than silently.
package replay

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/trace"
)

var (
	// ErrUnknownName indicates a free of a name that is not live.
	ErrUnknownName = errors.New("replay: unknown name")

	// ErrDuplicateName indicates an alloc of a name that is already live.
	ErrDuplicateName = errors.New("replay: name already live")

	// ErrCorruptPayload indicates a payload no longer holds its fill pattern.
	ErrCorruptPayload = errors.New("replay: payload corrupted")
)

// Heap is the allocator surface a trace needs. *alloc.Allocator and
// *alloc.Locked both satisfy it.
type Heap interface {
	Alloc(n int) (alloc.Ptr, []byte, error)
	Free(p alloc.Ptr)
	Payload(p alloc.Ptr) []byte
}

// Checker is implemented by heaps that can verify their own invariants.
type Checker interface {
	Check() error
}

// Block is a live allocation left at the end of a run.
type Block struct {
	Name  string
	Ptr   alloc.Ptr
	Bytes int
}

// Result summarizes a run.
type Result struct {
	Allocs int
	Frees  int
	Checks int

	LiveBytes int // requested bytes still allocated
	PeakBytes int // high-water mark of LiveBytes

	Live []Block // sorted by name
}

type liveBlock struct {
	ptr  alloc.Ptr
	n    int
	fill byte
}

// Run executes s against h in order. The context is checked between ops.
// The first failing op stops the run; its error names the trace line.
func Run(ctx context.Context, h Heap, s *trace.Script) (*Result, error) {
	res := &Result{}
	live := make(map[string]liveBlock)

	for i, op := range s.Ops {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		switch op.Kind {
		case trace.Alloc:
			if _, ok := live[op.Name]; ok {
				return res, lineErr(op, fmt.Errorf("%w: %q", ErrDuplicateName, op.Name))
			}
			p, payload, err := h.Alloc(op.Bytes)
			if err != nil {
				return res, lineErr(op, err)
			}
			b := liveBlock{ptr: p, n: op.Bytes, fill: fillByte(i)}
			fill(payload[:b.n], b.fill)
			live[op.Name] = b

			res.Allocs++
			res.LiveBytes += b.n
			res.PeakBytes = max(res.PeakBytes, res.LiveBytes)

		case trace.Free:
			b, ok := live[op.Name]
			if !ok {
				return res, lineErr(op, fmt.Errorf("%w: %q", ErrUnknownName, op.Name))
			}
			if err := verify(h, op.Name, b); err != nil {
				return res, lineErr(op, err)
			}
			h.Free(b.ptr)
			delete(live, op.Name)

			res.Frees++
			res.LiveBytes -= b.n

		case trace.Check:
			if err := verifyAll(h, live); err != nil {
				return res, lineErr(op, err)
			}
			if c, ok := h.(Checker); ok {
				if err := c.Check(); err != nil {
					return res, lineErr(op, err)
				}
			}
			res.Checks++

		default:
			return res, lineErr(op, fmt.Errorf("replay: unsupported op %v", op.Kind))
		}
	}

	res.Live = liveBlocks(live)
	logger.Debug("replay: done",
		"allocs", res.Allocs,
		"frees", res.Frees,
		"checks", res.Checks,
		"live_bytes", res.LiveBytes,
	)
	return res, nil
}

func lineErr(op trace.Op, err error) error {
	return fmt.Errorf("line %d (%v): %w", op.Line, op, err)
}

// fillByte never returns 0 so a zeroed payload does not pass verification.
func fillByte(i int) byte {
	return byte(i%255) + 1
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

func verify(h Heap, name string, b liveBlock) error {
	payload := h.Payload(b.ptr)
	if len(payload) < b.n {
		return fmt.Errorf("%w: %q has %d bytes, want %d", ErrCorruptPayload, name, len(payload), b.n)
	}
	for i, v := range payload[:b.n] {
		if v != b.fill {
			return fmt.Errorf("%w: %q byte %d is %#x, want %#x", ErrCorruptPayload, name, i, v, b.fill)
		}
	}
	return nil
}

func verifyAll(h Heap, live map[string]liveBlock) error {
	for _, name := range sortedNames(live) {
		if err := verify(h, name, live[name]); err != nil {
			return err
		}
	}
	return nil
}

func sortedNames(live map[string]liveBlock) []string {
	names := make([]string, 0, len(live))
	for name := range live {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func liveBlocks(live map[string]liveBlock) []Block {
	out := make([]Block, 0, len(live))
	for _, name := range sortedNames(live) {
		b := live[name]
		out = append(out, Block{Name: name, Ptr: b.ptr, Bytes: b.n})
	}
	return out
}
