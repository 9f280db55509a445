//go:build darwin

package region

import "golang.org/x/sys/unix"

// msyncRange flushes the whole mapping. On macOS msync must be given the
// address returned by mmap; the kernel only writes dirty pages anyway.
func msyncRange(data []byte, _, _ int) error {
	return unix.Msync(data, unix.MS_SYNC)
}

// fdatasync uses F_FULLFSYNC so data reaches the physical disk, not only the
// drive cache.
func fdatasync(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_FULLFSYNC, 0)
	return err
}
