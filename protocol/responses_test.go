package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestClassifyAck(t *testing.T) {
	tests := []struct {
		b    byte
		want Ack
	}{
		{0x79, AckOK},
		{0x1F, AckNack},
		{0x5F, AckAbort},
		{0x00, AckUnrecognized},
		{0x7F, AckUnrecognized},
		{0xFF, AckUnrecognized},
	}

	for _, tt := range tests {
		if got := ClassifyAck(tt.b); got != tt.want {
			t.Errorf("ClassifyAck(0x%02X) = %s, want %s", tt.b, got, tt.want)
		}
	}
}

func TestClassifyAckAllBytes(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		got := ClassifyAck(b)
		switch b {
		case StatusAck, StatusNack, StatusAbort:
			if got == AckUnrecognized {
				t.Errorf("ClassifyAck(0x%02X) = unrecognized", b)
			}
		default:
			if got != AckUnrecognized {
				t.Errorf("ClassifyAck(0x%02X) = %s, want unrecognized", b, got)
			}
		}
	}
}

func TestDescribeStatus(t *testing.T) {
	if got := DescribeStatus(0x1F); got != "0x1F (NACK)" {
		t.Errorf("DescribeStatus(0x1F) = %q", got)
	}
	if got := DescribeStatus(0x42); got != "0x42 (unrecognized)" {
		t.Errorf("DescribeStatus(0x42) = %q", got)
	}
}

func TestNotAcknowledgedError(t *testing.T) {
	err := &NotAcknowledgedError{Operation: "payload block", Received: 0x1F}

	if !strings.Contains(err.Error(), "payload block") {
		t.Errorf("error message should contain operation, got: %s", err)
	}
	if !strings.Contains(err.Error(), "0x1F") {
		t.Errorf("error message should contain the received byte, got: %s", err)
	}
	if err.Ack() != AckNack {
		t.Errorf("Ack() = %s, want NACK", err.Ack())
	}

	wrapped := errors.Join(errors.New("chunk 1"), err)
	if !IsNotAcknowledged(wrapped) {
		t.Error("IsNotAcknowledged() should see through wrapping")
	}
	if IsNotAcknowledged(ErrPayloadEmpty) {
		t.Error("IsNotAcknowledged(ErrPayloadEmpty) = true")
	}
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		want    Command
		wantErr error
	}{
		{name: "download", frame: []byte{0x31, 0xCE}, want: CmdDownload},
		{name: "start", frame: []byte{0x21, 0xDE}, want: CmdStart},
		{name: "bad complement", frame: []byte{0x31, 0xCF}, wantErr: ErrChecksumMismatch},
		{name: "unsupported", frame: []byte{0x44, 0xBB}, wantErr: ErrInvalidCommand},
		{name: "short", frame: []byte{0x31}, wantErr: ErrFrameLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := DecodeCommand(tt.frame)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd != tt.want {
				t.Errorf("command = %s, want %s", cmd, tt.want)
			}
		})
	}
}

func TestDecodeDownloadHeader(t *testing.T) {
	for _, seq := range []uint32{0, 1, 255, 256, 0x10000, MaxSequenceNumber} {
		frame, err := EncodeDownloadHeader(seq)
		if err != nil {
			t.Fatalf("EncodeDownloadHeader(%d): %v", seq, err)
		}
		got, err := DecodeDownloadHeader(frame)
		if err != nil {
			t.Fatalf("DecodeDownloadHeader(%d): %v", seq, err)
		}
		if got != seq {
			t.Errorf("DecodeDownloadHeader() = %d, want %d", got, seq)
		}
	}

	if _, err := DecodeDownloadHeader([]byte{0x00, 0x00, 0x00, 0x01, 0x00}); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("bad checksum error = %v, want ErrChecksumMismatch", err)
	}
	if _, err := DecodeDownloadHeader([]byte{0x00, 0x00, 0x01}); !errors.Is(err, ErrFrameLength) {
		t.Errorf("short frame error = %v, want ErrFrameLength", err)
	}
}

func TestDecodePayloadBlock(t *testing.T) {
	payload := []byte("bootloader payload")
	frame, err := EncodePayloadBlock(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := DecodePayloadBlock(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("DecodePayloadBlock() = %q, want %q", got, payload)
	}

	corrupt := append([]byte{}, frame...)
	corrupt[3] ^= 0x01
	if _, err := DecodePayloadBlock(corrupt); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("corrupt frame error = %v, want ErrChecksumMismatch", err)
	}

	if _, err := DecodePayloadBlock(frame[:len(frame)-1]); !errors.Is(err, ErrFrameLength) {
		t.Errorf("truncated frame error = %v, want ErrFrameLength", err)
	}
}

func TestDecodeStart(t *testing.T) {
	addr, err := DecodeStart(EncodeStart(FinalizeAddress))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != FinalizeAddress {
		t.Errorf("DecodeStart() = 0x%08X, want 0x%08X", addr, FinalizeAddress)
	}

	if _, err := DecodeStart([]byte{0xC0, 0x00, 0x00, 0x00, 0x00}); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("bad checksum error = %v, want ErrChecksumMismatch", err)
	}
}
