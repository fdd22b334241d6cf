package bootloader

import (
	"errors"
	"fmt"
)

// ErrImageEmpty is returned when Program is given a zero-length image.
var ErrImageEmpty = errors.New("firmware image is empty")

// TransportError wraps a failure of the underlying device.
// Reads are retried once before a TransportError is returned.
type TransportError struct {
	// Op is the I/O operation that failed, e.g. "read payload block status"
	Op string

	// Err is the error returned by the device
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
