package protocol

import (
	"errors"
	"fmt"
)

// Codec errors. Builders wrap them with the offending value, so compare with
// errors.Is.
var (
	// ErrInvalidCommand is returned for a command code outside the supported set
	ErrInvalidCommand = errors.New("invalid command")

	// ErrPayloadEmpty is returned for a zero-length download payload
	ErrPayloadEmpty = errors.New("payload is empty")

	// ErrPayloadTooLarge is returned for a payload above MaxPayloadSize
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrSequenceOverflow is returned when a packet number does not fit in 24 bits
	ErrSequenceOverflow = errors.New("sequence number exceeds 24 bits")

	// ErrChecksumMismatch is returned by decoders when a frame checksum is wrong
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrFrameLength is returned by decoders for a frame of the wrong size
	ErrFrameLength = errors.New("invalid frame length")
)

// NotAcknowledgedError represents a status byte other than ACK.
// Received holds the raw byte for diagnostics.
type NotAcknowledgedError struct {
	// Operation is the protocol step that was rejected
	Operation string

	// Received is the status byte returned by the bootloader
	Received byte
}

func (e *NotAcknowledgedError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("not acknowledged: %s", DescribeStatus(e.Received))
	}
	return fmt.Sprintf("%s not acknowledged: %s", e.Operation, DescribeStatus(e.Received))
}

// Ack returns the classification of the received byte.
func (e *NotAcknowledgedError) Ack() Ack {
	return ClassifyAck(e.Received)
}

// IsNotAcknowledged returns true if err is or wraps a NotAcknowledgedError.
func IsNotAcknowledged(err error) bool {
	var nae *NotAcknowledgedError
	return errors.As(err, &nae)
}
