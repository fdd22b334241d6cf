package protocol

// InitByte is the single byte that opens a session. The ROM bootloader uses
// it to detect the baud rate and answers with an acknowledgement.
const InitByte = 0x7F

// Command is a bootloader command code. On the wire every command code is
// followed by its one's complement.
type Command byte

// Command codes accepted by the ROM bootloader.
const (
	// CmdGet returns the bootloader version and the supported commands
	CmdGet Command = 0x00

	// CmdGetVersion returns the bootloader version
	CmdGetVersion Command = 0x01

	// CmdGetID returns the chip product ID
	CmdGetID Command = 0x02

	// CmdGetPhase returns the phase ID of the partition to download next
	CmdGetPhase Command = 0x03

	// CmdReadMemory reads memory at an address
	CmdReadMemory Command = 0x11

	// CmdReadPartition reads a partition
	CmdReadPartition Command = 0x12

	// CmdStart finalizes a download or jumps to an address
	CmdStart Command = 0x21

	// CmdDownload writes one packet of the current partition
	CmdDownload Command = 0x31
)

// Status bytes returned by the bootloader after each protocol step.
const (
	// StatusAck means the step was accepted
	StatusAck = 0x79

	// StatusNack means the step was rejected
	StatusNack = 0x1F

	// StatusAbort means the bootloader abandoned the operation
	StatusAbort = 0x5F
)

// Download packet constants.
const (
	// PacketMarker precedes the packet number in a download header
	PacketMarker = 0x00

	// MaxPayloadSize is the largest payload one download packet can carry.
	// The length travels as len-1 in a single byte.
	MaxPayloadSize = 256

	// MaxSequenceNumber is the largest packet number representable in the
	// 3-byte header field.
	MaxSequenceNumber = 0xFFFFFF
)

// FinalizeAddress is the Start address that tells the bootloader the download
// is complete without jumping to a specific address.
const FinalizeAddress uint32 = 0xFFFFFFFF

// Frame sizes on the wire.
const (
	// CommandFrameSize is the code byte plus its complement
	CommandFrameSize = 2

	// DownloadHeaderSize is the marker, three packet number bytes and the checksum
	DownloadHeaderSize = 5

	// StartFrameSize is four address bytes and the checksum
	StartFrameSize = 5

	// PayloadOverhead is the length byte and the trailing checksum
	PayloadOverhead = 2
)
