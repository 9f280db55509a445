package region

import "errors"

var (
	// ErrExhausted indicates the region cannot grow by the requested amount.
	ErrExhausted = errors.New("region: exhausted")

	// ErrClosed indicates an operation on a closed region.
	ErrClosed = errors.New("region: closed")

	// ErrBadSize indicates a negative growth or reservation size.
	ErrBadSize = errors.New("region: invalid size")
)
