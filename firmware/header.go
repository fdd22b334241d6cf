package firmware

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// STM32 image header layout. Only the fields shared by header versions 1 and 2
// are decoded.
const (
	// HeaderMagic opens every STM32 image header
	HeaderMagic = "STM\x32"

	// HeaderSizeV1 is the size of a version 1 header; the payload follows it
	HeaderSizeV1 = 0x100

	offsetChecksum      = 0x44
	offsetVersion       = 0x48
	offsetLength        = 0x4C
	offsetEntryPoint    = 0x50
	offsetLoadAddress   = 0x58
	offsetImageVersion  = 0x60
	minHeaderDecodeSize = offsetImageVersion + 4
)

var (
	// ErrNoHeader is returned when the data does not start with HeaderMagic
	ErrNoHeader = errors.New("no STM32 image header")

	// ErrUnsupportedHeader is returned when a header version cannot be verified
	ErrUnsupportedHeader = errors.New("unsupported STM32 header version")
)

// Header holds the decoded fields of an STM32 image header.
type Header struct {
	// VersionMajor and VersionMinor identify the header layout
	VersionMajor byte
	VersionMinor byte

	// PayloadChecksum is the 32-bit sum of all payload bytes
	PayloadChecksum uint32

	// PayloadLength is the payload size in bytes, header excluded
	PayloadLength uint32

	// EntryPoint is the address the ROM jumps to after loading
	EntryPoint uint32

	// LoadAddress is where the ROM places the image
	LoadAddress uint32

	// ImageVersion is the anti-rollback version of the image
	ImageVersion uint32
}

// ParseHeader decodes the STM32 image header at the start of data.
// Returns ErrNoHeader if data does not begin with HeaderMagic.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < len(HeaderMagic) || string(data[:len(HeaderMagic)]) != HeaderMagic {
		return nil, ErrNoHeader
	}
	if len(data) < minHeaderDecodeSize {
		return nil, fmt.Errorf("header truncated: got %d bytes, need %d", len(data), minHeaderDecodeSize)
	}

	version := binary.LittleEndian.Uint32(data[offsetVersion:])

	return &Header{
		VersionMajor:    byte(version >> 16),
		VersionMinor:    byte(version >> 8),
		PayloadChecksum: binary.LittleEndian.Uint32(data[offsetChecksum:]),
		PayloadLength:   binary.LittleEndian.Uint32(data[offsetLength:]),
		EntryPoint:      binary.LittleEndian.Uint32(data[offsetEntryPoint:]),
		LoadAddress:     binary.LittleEndian.Uint32(data[offsetLoadAddress:]),
		ImageVersion:    binary.LittleEndian.Uint32(data[offsetImageVersion:]),
	}, nil
}

// VerifyPayload checks the payload length and checksum recorded in a
// version 1 header against data, the complete image including the header.
// Other header versions return ErrUnsupportedHeader.
func (h *Header) VerifyPayload(data []byte) error {
	if h.VersionMajor != 1 {
		return fmt.Errorf("%w: %d.%d", ErrUnsupportedHeader, h.VersionMajor, h.VersionMinor)
	}

	// Compare in 64 bits; the declared length may not fit in an int
	if uint64(len(data)) < uint64(HeaderSizeV1)+uint64(h.PayloadLength) {
		return fmt.Errorf("payload truncated: header declares %d bytes, file holds %d",
			h.PayloadLength, max(len(data)-HeaderSizeV1, 0))
	}
	end := HeaderSizeV1 + int(h.PayloadLength)

	var sum uint32
	for _, b := range data[HeaderSizeV1:end] {
		sum += uint32(b)
	}
	if sum != h.PayloadChecksum {
		return &PayloadChecksumError{Expected: h.PayloadChecksum, Actual: sum}
	}
	return nil
}

// PayloadChecksumError indicates the payload does not match the header checksum.
type PayloadChecksumError struct {
	Expected uint32
	Actual   uint32
}

func (e *PayloadChecksumError) Error() string {
	return fmt.Sprintf("payload checksum mismatch: header has 0x%08X, payload sums to 0x%08X",
		e.Expected, e.Actual)
}
