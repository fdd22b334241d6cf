package protocol

import (
	"encoding/binary"
	"fmt"
)

// EncodeInit returns the session opening frame.
func EncodeInit() []byte {
	return []byte{InitByte}
}

// EncodeCommand constructs a command frame.
//
// Frame structure:
//
//	[CODE][0xFF-CODE]
//
// Returns ErrInvalidCommand if cmd is not in the supported set.
func EncodeCommand(cmd Command) ([]byte, error) {
	if !cmd.Valid() {
		return nil, fmt.Errorf("%w: 0x%02X", ErrInvalidCommand, byte(cmd))
	}
	return []byte{byte(cmd), 0xFF - byte(cmd)}, nil
}

// EncodeDownloadHeader constructs the packet number frame sent after a
// Download command.
//
// Frame structure:
//
//	[0x00][SEQ_H][SEQ_M][SEQ_L][CHECKSUM]
//
// The first four bytes are the header; the checksum is the XOR of the three
// packet number bytes and travels in the same write. Packet numbers are 24 bits
// wide, so seq above MaxSequenceNumber returns ErrSequenceOverflow instead of
// being truncated.
func EncodeDownloadHeader(seq uint32) ([]byte, error) {
	if seq > MaxSequenceNumber {
		return nil, fmt.Errorf("%w: %d", ErrSequenceOverflow, seq)
	}

	frame := make([]byte, 0, DownloadHeaderSize)
	frame = append(frame, PacketMarker, byte(seq>>16), byte(seq>>8), byte(seq))
	frame = append(frame, Checksum(frame[1:4]))

	return frame, nil
}

// EncodePayloadBlock constructs the data frame of a download packet.
//
// Frame structure:
//
//	[LEN-1][DATA...][CHECKSUM]
//
// The checksum is the XOR of LEN-1 and every data byte. The payload must hold
// between 1 and MaxPayloadSize bytes.
func EncodePayloadBlock(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrPayloadEmpty
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum %d bytes", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	frame := make([]byte, 0, len(payload)+PayloadOverhead)
	frame = append(frame, byte(len(payload)-1))
	frame = append(frame, payload...)
	frame = append(frame, Checksum(frame))

	return frame, nil
}

// EncodeStart constructs the address frame sent after a Start command.
//
// Frame structure:
//
//	[ADDR_3][ADDR_2][ADDR_1][ADDR_0][CHECKSUM]
//
// Pass FinalizeAddress to complete a download without jumping.
func EncodeStart(addr uint32) []byte {
	frame := make([]byte, 4, StartFrameSize)
	binary.BigEndian.PutUint32(frame, addr)
	return append(frame, Checksum(frame))
}
