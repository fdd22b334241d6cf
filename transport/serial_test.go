package transport

import (
	"errors"
	"io"
	"testing"
	"time"

	"go.bug.st/serial"
)

// fakePort implements the parts of serial.Port that Serial uses.
type fakePort struct {
	serial.Port

	rx         []byte
	written    []byte
	timeout    time.Duration
	resetCalls int
	closed     bool
	readErr    error
}

func (f *fakePort) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.rx) == 0 {
		return 0, nil
	}
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakePort) SetReadTimeout(t time.Duration) error {
	f.timeout = t
	return nil
}

func (f *fakePort) ResetInputBuffer() error {
	f.resetCalls++
	f.rx = nil
	return nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func TestSerialReadTimeout(t *testing.T) {
	port := &fakePort{rx: []byte{0x79}}
	s := &Serial{port: port, name: "fake"}

	buf := make([]byte, 1)
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf[0] != 0x79 {
		t.Errorf("read 0x%02X, want 0x79", buf[0])
	}

	if _, err := io.ReadFull(s, buf); !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestSerialReadError(t *testing.T) {
	portErr := errors.New("device disconnected")
	s := &Serial{port: &fakePort{readErr: portErr}, name: "fake"}

	if _, err := s.Read(make([]byte, 1)); !errors.Is(err, portErr) {
		t.Errorf("error = %v, want %v", err, portErr)
	}
}

func TestSerialPassthrough(t *testing.T) {
	port := &fakePort{rx: []byte{0x01, 0x02}}
	s := &Serial{port: port, name: "/dev/ttyFAKE"}

	if _, err := s.Write([]byte{0x7F}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(port.written) != 1 || port.written[0] != 0x7F {
		t.Errorf("written = % X, want 7F", port.written)
	}

	if err := s.SetReadTimeout(250 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port.timeout != 250*time.Millisecond {
		t.Errorf("timeout = %s, want 250ms", port.timeout)
	}

	if err := s.Drain(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port.resetCalls != 1 || len(port.rx) != 0 {
		t.Error("Drain() should reset the input buffer")
	}

	if s.Name() != "/dev/ttyFAKE" {
		t.Errorf("Name() = %q", s.Name())
	}

	if err := s.Close(); err != nil || !port.closed {
		t.Error("Close() should close the port")
	}
}

func TestDefaultSerialConfig(t *testing.T) {
	cfg := DefaultSerialConfig()

	if cfg.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", cfg.BaudRate)
	}
	if cfg.Parity != serial.EvenParity {
		t.Errorf("Parity = %v, want even", cfg.Parity)
	}
	if cfg.StopBits != serial.OneStopBit {
		t.Errorf("StopBits = %v, want one", cfg.StopBits)
	}
	if cfg.ReadTimeout != 500*time.Millisecond {
		t.Errorf("ReadTimeout = %s, want 500ms", cfg.ReadTimeout)
	}

	mode := cfg.mode()
	if mode.BaudRate != cfg.BaudRate || mode.DataBits != 8 {
		t.Errorf("mode = %+v", mode)
	}
}

func TestParseParity(t *testing.T) {
	tests := []struct {
		in      string
		want    serial.Parity
		wantErr bool
	}{
		{"even", serial.EvenParity, false},
		{"E", serial.EvenParity, false},
		{"none", serial.NoParity, false},
		{"odd", serial.OddParity, false},
		{"mark", serial.MarkParity, false},
		{"space", serial.SpaceParity, false},
		{"bogus", serial.NoParity, true},
	}

	for _, tt := range tests {
		got, err := ParseParity(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseParity(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseParity(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseParity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
