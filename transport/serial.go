package transport

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// SerialConfig describes the line settings of a serial port.
type SerialConfig struct {
	BaudRate    int
	DataBits    int
	Parity      serial.Parity
	StopBits    serial.StopBits
	ReadTimeout time.Duration
}

// DefaultSerialConfig returns the framing the ROM bootloader expects:
// 115200 baud, 8 data bits, even parity, one stop bit, 500 ms read timeout.
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		BaudRate:    115200,
		DataBits:    8,
		Parity:      serial.EvenParity,
		StopBits:    serial.OneStopBit,
		ReadTimeout: 500 * time.Millisecond,
	}
}

func (c SerialConfig) mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   c.Parity,
		StopBits: c.StopBits,
	}
}

// ParseParity converts a flag value ("none", "even", "odd", "mark", "space").
func ParseParity(s string) (serial.Parity, error) {
	switch strings.ToLower(s) {
	case "none", "n":
		return serial.NoParity, nil
	case "even", "e":
		return serial.EvenParity, nil
	case "odd", "o":
		return serial.OddParity, nil
	case "mark", "m":
		return serial.MarkParity, nil
	case "space", "s":
		return serial.SpaceParity, nil
	default:
		return serial.NoParity, fmt.Errorf("unknown parity %q", s)
	}
}

// Serial wraps a serial port.
//
// go.bug.st/serial reports a read timeout as (0, nil); Serial turns that into
// ErrTimeout so io.ReadFull does not spin.
type Serial struct {
	port serial.Port
	name string
}

// OpenSerial opens a serial port with the given configuration.
func OpenSerial(name string, cfg SerialConfig) (*Serial, error) {
	port, err := serial.Open(name, cfg.mode())
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	s := &Serial{port: port, name: name}
	if cfg.ReadTimeout > 0 {
		if err := s.SetReadTimeout(cfg.ReadTimeout); err != nil {
			_ = port.Close()
			return nil, err
		}
	}
	return s, nil
}

// Name returns the port name.
func (s *Serial) Name() string {
	return s.name
}

func (s *Serial) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.port.Read(p)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, ErrTimeout
	}
	return n, nil
}

func (s *Serial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// SetReadTimeout sets how long Read waits for the first byte.
func (s *Serial) SetReadTimeout(timeout time.Duration) error {
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("set read timeout on %s: %w", s.name, err)
	}
	return nil
}

// Drain discards any bytes waiting in the input buffer.
func (s *Serial) Drain() error {
	return s.port.ResetInputBuffer()
}

func (s *Serial) Close() error {
	return s.port.Close()
}

// ResetCycles opens and immediately closes the port n times, ignoring errors,
// and returns how many attempts failed. Some USB-serial adapters only deliver
// the first bytes of a session reliably after this.
func ResetCycles(name string, cfg SerialConfig, n int) int {
	failures := 0
	for i := 0; i < n; i++ {
		port, err := serial.Open(name, cfg.mode())
		if err != nil {
			failures++
			continue
		}
		_ = port.Close()
	}
	return failures
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
