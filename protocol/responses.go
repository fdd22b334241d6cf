package protocol

import (
	"encoding/binary"
	"fmt"
)

// ClassifyAck maps a status byte to its acknowledgement class.
func ClassifyAck(b byte) Ack {
	switch b {
	case StatusAck:
		return AckOK
	case StatusNack:
		return AckNack
	case StatusAbort:
		return AckAbort
	default:
		return AckUnrecognized
	}
}

// DescribeStatus returns a human-readable rendering of a status byte,
// e.g. "0x1F (NACK)".
func DescribeStatus(b byte) string {
	return fmt.Sprintf("0x%02X (%s)", b, ClassifyAck(b))
}

// DecodeCommand validates a command frame and returns its code.
// The complement byte must match and the code must be supported.
func DecodeCommand(frame []byte) (Command, error) {
	if len(frame) != CommandFrameSize {
		return 0, fmt.Errorf("%w: command frame is %d bytes, expected %d", ErrFrameLength, len(frame), CommandFrameSize)
	}
	if frame[1] != 0xFF-frame[0] {
		return 0, fmt.Errorf("%w: command 0x%02X has complement 0x%02X", ErrChecksumMismatch, frame[0], frame[1])
	}

	cmd := Command(frame[0])
	if !cmd.Valid() {
		return 0, fmt.Errorf("%w: 0x%02X", ErrInvalidCommand, frame[0])
	}
	return cmd, nil
}

// DecodeDownloadHeader validates a download header frame and returns the
// packet number.
func DecodeDownloadHeader(frame []byte) (uint32, error) {
	if len(frame) != DownloadHeaderSize {
		return 0, fmt.Errorf("%w: download header is %d bytes, expected %d", ErrFrameLength, len(frame), DownloadHeaderSize)
	}
	if frame[0] != PacketMarker {
		return 0, fmt.Errorf("invalid packet marker: got 0x%02X, expected 0x%02X", frame[0], PacketMarker)
	}
	if sum := Checksum(frame[1:4]); sum != frame[4] {
		return 0, fmt.Errorf("%w: got 0x%02X, expected 0x%02X", ErrChecksumMismatch, frame[4], sum)
	}

	return uint32(frame[1])<<16 | uint32(frame[2])<<8 | uint32(frame[3]), nil
}

// DecodePayloadBlock validates a payload block and returns the data bytes.
// The returned slice aliases frame.
func DecodePayloadBlock(frame []byte) ([]byte, error) {
	if len(frame) < 1+PayloadOverhead {
		return nil, fmt.Errorf("%w: payload block is %d bytes, minimum is %d", ErrFrameLength, len(frame), 1+PayloadOverhead)
	}

	n := int(frame[0]) + 1
	if len(frame) != n+PayloadOverhead {
		return nil, fmt.Errorf("%w: payload block is %d bytes, length field says %d", ErrFrameLength, len(frame), n+PayloadOverhead)
	}

	last := len(frame) - 1
	if sum := Checksum(frame[:last]); sum != frame[last] {
		return nil, fmt.Errorf("%w: got 0x%02X, expected 0x%02X", ErrChecksumMismatch, frame[last], sum)
	}

	return frame[1:last], nil
}

// DecodeStart validates a start frame and returns the address.
func DecodeStart(frame []byte) (uint32, error) {
	if len(frame) != StartFrameSize {
		return 0, fmt.Errorf("%w: start frame is %d bytes, expected %d", ErrFrameLength, len(frame), StartFrameSize)
	}
	if sum := Checksum(frame[:4]); sum != frame[4] {
		return 0, fmt.Errorf("%w: got 0x%02X, expected 0x%02X", ErrChecksumMismatch, frame[4], sum)
	}

	return binary.BigEndian.Uint32(frame[:4]), nil
}
