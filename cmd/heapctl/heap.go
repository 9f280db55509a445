package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/logger"
)

const (
	regionMem  = "mem"
	regionAnon = "anon"
	regionFile = "file"
)

// session is an allocator plus whatever owns its region.
type session struct {
	a     *alloc.Allocator
	close func(ctx context.Context) error
}

// openHeap builds the region selected by c and an allocator over it.
// File regions get a dirty tracker that is flushed on close.
func openHeap(c Config) (*session, error) {
	opts := &alloc.Options{MinGrowUnits: c.MinGrow, Logger: logger.L}

	switch c.Region {
	case regionMem:
		r := region.NewMem(c.Limit)
		return &session{
			a:     alloc.New(r, opts),
			close: func(context.Context) error { return nil },
		}, nil

	case regionAnon:
		r, err := region.NewAnon(c.Reserve)
		if err != nil {
			return nil, err
		}
		return &session{
			a:     alloc.New(r, opts),
			close: func(context.Context) error { return r.Close() },
		}, nil

	case regionFile:
		r, err := region.CreateFile(c.Path, int64(c.Limit))
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", c.Path, err)
		}
		t := dirty.NewTracker(r)
		opts.Dirty = t
		return &session{
			a: alloc.New(r, opts),
			close: func(ctx context.Context) error {
				flushErr := t.Flush(ctx, dirty.FlushAuto)
				return errors.Join(flushErr, r.Close())
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown region %q (want %s, %s or %s)", c.Region, regionMem, regionAnon, regionFile)
	}
}
