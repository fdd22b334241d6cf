// Package bootloader downloads firmware to an STM32 ROM bootloader over a byte link.
//
// # Overview
//
// A session runs through these states:
//
//	init -> sending(chunk 0..N-1) -> finalizing -> done
//
// and ends in "aborted" on the first failure. The image is split into chunks
// of at most 256 bytes numbered 0..N-1; every chunk is sent as a Download
// command, a packet number header and a payload block, and the device
// acknowledges each of them. A Start command with the address 0xFFFFFFFF
// closes the download.
//
// # Basic Usage
//
//	port, err := transport.OpenSerial("/dev/ttyUSB0", transport.DefaultSerialConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	img, err := firmware.Load("tf-a-stm32mp135f-dk.stm32")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prog := bootloader.New(port)
//	if err := prog.Program(context.Background(), img); err != nil {
//	    log.Fatal(err)
//	}
//
// # Acknowledgements
//
// After each step the programmer reads one status byte. Two device quirks are
// absorbed: a failed first read is retried once, and a 0x00 byte before the
// status is skipped. Anything but ACK (0x79) aborts the session with a
// *protocol.NotAcknowledgedError carrying the received byte.
//
// # Configuration Options
//
//	prog := bootloader.New(device,
//	    bootloader.WithProgressCallback(progressFunc),
//	    bootloader.WithLogger(slog.Default()),
//	    bootloader.WithReadTimeout(500*time.Millisecond),
//	    bootloader.WithChunkSize(256),
//	)
//
// # Error Handling
//
// The package returns structured errors:
//   - ErrImageEmpty: zero-length image, nothing was sent
//   - protocol.ErrSequenceOverflow: image needs more than 2^24 packets
//   - *protocol.NotAcknowledgedError: the device answered NACK, ABORT or an unknown byte
//   - *TransportError: the device failed to write, or to read after one retry
//
// # Hardware Independence
//
// The programmer works with any io.ReadWriter whose reads fail on timeout.
// Devices that implement SetReadTimeout(time.Duration) error get the
// configured timeout applied before the handshake. The transport package
// provides serial and WebSocket bridge links.
package bootloader
