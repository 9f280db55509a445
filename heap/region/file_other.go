//go:build !linux && !darwin

package region

import (
	"fmt"
	"os"

	"github.com/joshuapare/heapkit/internal/buf"
)

// File is a region mirrored to a file. Without mmap the bytes live in memory
// and SyncRange writes them through with WriteAt.
type File struct {
	f     *os.File
	path  string
	data  []byte
	limit int64
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

// Grow extends the region and the file by n zero bytes.
func (r *File) Grow(n int) (int, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: grow %d", ErrBadSize, n)
	}
	end, ok := buf.AddOverflowSafe(len(r.data), n)
	if !ok || (r.limit > 0 && int64(end) > r.limit) {
		return 0, fmt.Errorf("%w: %d + %d bytes exceeds limit %d", ErrExhausted, len(r.data), n, r.limit)
	}
	if err := r.f.Truncate(int64(end)); err != nil {
		return 0, fmt.Errorf("region: extend file: %w", err)
	}
	off := len(r.data)
	next := make([]byte, end)
	copy(next, r.data)
	r.data = next
	return off, nil
}

// Bytes returns the in-memory image.
func (r *File) Bytes() []byte { return r.data }

// Path returns the backing file path.
func (r *File) Path() string { return r.path }

// SyncRange writes [off, off+n) of the image to the file.
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
	_, err := r.f.WriteAt(r.data[off:end], int64(off))
	return err
}

// Sync flushes file data to stable storage.
func (r *File) Sync() error {
	if r.f == nil {
		return ErrClosed
	}
	return r.f.Sync()
}

// Close closes the file. The file itself is left on disk.
func (r *File) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	r.data = nil
	return err
}
