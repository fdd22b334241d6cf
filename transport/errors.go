package transport

import "errors"

var (
	// ErrTimeout is returned by Read when no byte arrives within the read timeout
	ErrTimeout = errors.New("read timeout")

	// ErrConnectionClosed is returned when reading from a closed bridge connection
	ErrConnectionClosed = errors.New("connection closed")
)
