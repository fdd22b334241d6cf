// Package protocol implements the framing of the STM32 ROM bootloader UART protocol.
//
// This package provides pure functions that build command frames, compute the
// XOR checksums and classify the single-byte status replies. It performs no I/O.
//
// # Protocol Overview
//
// Every protocol step is a write followed by one status byte from the device:
//
//	Init:            [0x7F]
//	Command:         [CODE][0xFF-CODE]
//	Download header: [0x00][SEQ_H][SEQ_M][SEQ_L][XOR(SEQ)]
//	Payload block:   [LEN-1][DATA...][XOR(LEN-1, DATA)]
//	Start:           [ADDR_3][ADDR_2][ADDR_1][ADDR_0][XOR(ADDR)]
//	Status:          0x79 = ACK, 0x1F = NACK, 0x5F = ABORT
//
// A download is a sequence of packets, each made of a Download command, a
// header carrying the 24-bit packet number and a payload block of at most
// MaxPayloadSize bytes. A Start command with FinalizeAddress closes it.
//
// # Encoders
//
//	frame, err := protocol.EncodeCommand(protocol.CmdDownload)
//	frame, err := protocol.EncodeDownloadHeader(seq)
//	frame, err := protocol.EncodePayloadBlock(chunk)
//	frame := protocol.EncodeStart(protocol.FinalizeAddress)
//
// # Status Bytes
//
//	if protocol.ClassifyAck(b) != protocol.AckOK {
//	    return &protocol.NotAcknowledgedError{Operation: "download header", Received: b}
//	}
//
// The Decode* functions are the inverse transforms. They validate complements
// and checksums and are used to implement device-side simulators.
package protocol
