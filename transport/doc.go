// Package transport provides byte links to a ROM bootloader.
//
// Two links are available:
//   - Serial: a local UART through go.bug.st/serial
//   - WebSocket: a network serial bridge forwarding binary messages
//
// Both implement io.ReadWriter plus SetReadTimeout and Drain, and both report
// a read that sees no data within the timeout as ErrTimeout, which is what the
// bootloader package expects from its device.
//
//	port, err := transport.OpenSerial("/dev/ttyUSB0", transport.DefaultSerialConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
package transport
