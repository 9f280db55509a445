//go:build linux

package region

import "golang.org/x/sys/unix"

// msyncRange flushes data[start:end]. Linux accepts sub-slices of a mapping as
// long as start is page aligned.
func msyncRange(data []byte, start, end int) error {
	return unix.Msync(data[start:end], unix.MS_SYNC)
}

func fdatasync(fd int) error {
	return unix.Fdatasync(fd)
}
