package cmd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moffa90/go-stm32boot/bootloader"
	"github.com/moffa90/go-stm32boot/firmware"
	"github.com/moffa90/go-stm32boot/protocol"
	"github.com/moffa90/go-stm32boot/transport"
)

// writeImage writes a version 1 image with the given payload size.
// A corrupt image carries a wrong payload checksum.
func writeImage(t *testing.T, payloadSize int, corrupt bool) string {
	t.Helper()

	data := make([]byte, firmware.HeaderSizeV1+payloadSize)
	copy(data, firmware.HeaderMagic)

	var sum uint32
	for i := firmware.HeaderSizeV1; i < len(data); i++ {
		data[i] = byte(i)
		sum += uint32(data[i])
	}
	if corrupt {
		sum++
	}

	binary.LittleEndian.PutUint32(data[0x44:], sum)
	binary.LittleEndian.PutUint32(data[0x48:], 0x00010000)
	binary.LittleEndian.PutUint32(data[0x4C:], uint32(payloadSize))
	binary.LittleEndian.PutUint32(data[0x50:], 0x2FFE0000)
	binary.LittleEndian.PutUint32(data[0x58:], 0x2FFE0000)

	path := filepath.Join(t.TempDir(), "image.stm32")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flag variables outlive a single Execute
	flashForce, flashNoTUI, flashSimulate, flashNoDrain = false, false, false, false
	flashChunkSize, inspectChunkSize = protocol.MaxPayloadSize, protocol.MaxPayloadSize
	flashStartAddress = "0xFFFFFFFF"
	portName, wsURL = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name      string
		payload   int
		corrupt   bool
		args      []string
		wantLines []string
	}{
		{
			name:    "valid header",
			payload: 44,
			wantLines: []string{
				"300 bytes",
				"2 (256-byte payloads, last 44 bytes)",
				"8 (9 status bytes)",
				"0x2FFE0000",
				"Payload checksum OK",
			},
		},
		{
			name:    "small chunks",
			payload: 44,
			args:    []string{"--chunk-size", "100"},
			wantLines: []string{
				"3 (100-byte payloads, last 100 bytes)",
				"11 (12 status bytes)",
			},
		},
		{
			name:      "corrupt payload",
			payload:   10,
			corrupt:   true,
			wantLines: []string{"payload checksum mismatch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeImage(t, tt.payload, tt.corrupt)

			out, err := execute(t, append([]string{"inspect", path}, tt.args...)...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.wantLines {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestInspectWithoutHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "inspect", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No STM32 image header") {
		t.Errorf("output = %q", out)
	}
}

func TestFlashSimulated(t *testing.T) {
	path := writeImage(t, 500, false)

	out, err := execute(t, "flash", "--simulate", "--no-tui", "-f", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"init", "packet 3/3", "finalizing", "done", "Downloaded"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFlashRejectsCorruptImage(t *testing.T) {
	path := writeImage(t, 100, true)

	_, err := execute(t, "flash", "--simulate", "--no-tui", "-f", path)
	var pce *firmware.PayloadChecksumError
	if !errors.As(err, &pce) {
		t.Fatalf("error = %v, want PayloadChecksumError", err)
	}

	if _, err := execute(t, "flash", "--simulate", "--no-tui", "--force", "-f", path); err != nil {
		t.Fatalf("--force: unexpected error: %v", err)
	}
}

func TestFlashFlagValidation(t *testing.T) {
	path := writeImage(t, 10, false)

	tests := []struct {
		name string
		args []string
	}{
		{"chunk size zero", []string{"--chunk-size", "0"}},
		{"chunk size too large", []string{"--chunk-size", "257"}},
		{"bad start address", []string{"--start-address", "0x1FFFFFFFF"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"flash", "--simulate", "--no-tui", "-f", path}, tt.args...)
			if _, err := execute(t, args...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestFlashNeedsConnection(t *testing.T) {
	path := writeImage(t, 10, false)

	_, err := execute(t, "flash", "--no-tui", "-f", path)
	if err == nil || !strings.Contains(err.Error(), "no connection specified") {
		t.Errorf("error = %v, want missing connection error", err)
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nack",
			err:  fmt.Errorf("download chunk 2/2: %w", &protocol.NotAcknowledgedError{Operation: "payload block", Received: 0x1F}),
			want: "rejected the frame",
		},
		{
			name: "abort",
			err:  &protocol.NotAcknowledgedError{Operation: "init", Received: 0x5F},
			want: "aborted",
		},
		{
			name: "garbage",
			err:  &protocol.NotAcknowledgedError{Operation: "init", Received: 0x42},
			want: "baud rate",
		},
		{
			name: "timeout",
			err:  fmt.Errorf("download chunk 1/1: %w", &bootloader.TransportError{Op: "read init status", Err: transport.ErrTimeout}),
			want: "UART boot mode",
		},
		{
			name: "link failure",
			err:  &bootloader.TransportError{Op: "write init", Err: errors.New("port gone")},
			want: "link failure during write init",
		},
		{
			name: "empty image",
			err:  bootloader.ErrImageEmpty,
			want: "nothing to download",
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeError(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("describeError() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestStartAddressFlag(t *testing.T) {
	f := flashCmd.Flags().Lookup("start-address")
	if f == nil {
		t.Fatal("flash has no --start-address flag")
	}
	if f.DefValue != "0xFFFFFFFF" {
		t.Errorf("default = %s, want 0xFFFFFFFF", f.DefValue)
	}
	if !strings.Contains(f.Usage, "finalizes") || !strings.Contains(f.Usage, "jump") {
		t.Errorf("usage %q should explain finalize vs jump", f.Usage)
	}
}
