//go:build linux || darwin

package region

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/internal/buf"
)

// File is a region backed by a shared mapping of a file. Growth extends the
// file with ftruncate and remaps it, so the backing slice changes on every
// Grow.
type File struct {
	f     *os.File
	path  string
	data  []byte
	size  int64
	limit int64 // 0 = unlimited
}

// CreateFile creates (or truncates) the file at path and returns an empty
// region over it. limit caps the file size in bytes; 0 means no cap.
func CreateFile(path string, limit int64) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	return &File{f: f, path: path, limit: limit}, nil
}

// Grow extends the file by n zero bytes and remaps it.
func (r *File) Grow(n int) (int, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: grow %d", ErrBadSize, n)
	}
	if n == 0 {
		return int(r.size), nil
	}

	newSize := r.size + int64(n)
	if newSize < r.size || (r.limit > 0 && newSize > r.limit) || newSize > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("%w: %d + %d bytes exceeds limit %d", ErrExhausted, r.size, n, r.limit)
	}

	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil {
			return 0, fmt.Errorf("region: unmap before grow: %w", err)
		}
		r.data = nil
	}

	if err := r.f.Truncate(newSize); err != nil {
		r.remapOld()
		return 0, fmt.Errorf("region: extend file: %w", err)
	}

	data, err := r.mmap(newSize)
	if err != nil {
		_ = r.f.Truncate(r.size)
		r.remapOld()
		return 0, fmt.Errorf("region: remap after grow: %w", err)
	}

	off := int(r.size)
	r.data = data
	r.size = newSize
	return off, nil
}

// Bytes returns the current mapping.
func (r *File) Bytes() []byte { return r.data }

// Path returns the backing file path.
func (r *File) Path() string { return r.path }

// SyncRange writes the mapped pages covering [off, off+n) back to the file.
// The range is clipped to the region; off should be page aligned.
func (r *File) SyncRange(off, n int) error {
	if r.f == nil {
		return ErrClosed
	}
	if off >= len(r.data) || n <= 0 {
		return nil
	}
	end, ok := buf.AddOverflowSafe(off, n)
	if !ok || end > len(r.data) {
		end = len(r.data)
	}
	return msyncRange(r.data, off, end)
}

// Sync flushes file data to stable storage.
func (r *File) Sync() error {
	if r.f == nil {
		return ErrClosed
	}
	return fdatasync(int(r.f.Fd()))
}

// Close unmaps and closes the file. The file itself is left on disk.
func (r *File) Close() error {
	var errs []error
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil && !errors.Is(err, unix.EINVAL) {
			errs = append(errs, err)
		}
		r.data = nil
	}
	if r.f != nil {
		errs = append(errs, r.f.Close())
		r.f = nil
	}
	return errors.Join(errs...)
}

func (r *File) mmap(size int64) ([]byte, error) {
	return unix.Mmap(int(r.f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// remapOld restores the mapping at the previous size after a failed grow.
func (r *File) remapOld() {
	if r.size == 0 {
		return
	}
	data, err := r.mmap(r.size)
	if err == nil {
		r.data = data
	}
}
