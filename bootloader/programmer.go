package bootloader

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-stm32boot/firmware"
	"github.com/moffa90/go-stm32boot/protocol"
)

// Programmer drives the ROM bootloader download sequence over a byte link.
//
// A Programmer owns its device for the duration of Program and issues one
// request at a time. It is not safe for concurrent use.
type Programmer struct {
	device io.ReadWriter
	config Config

	exchanges int
}

// readTimeoutSetter is implemented by links with a configurable read timeout,
// such as transport.Serial.
type readTimeoutSetter interface {
	SetReadTimeout(time.Duration) error
}

// New creates a new Programmer with the given device and options.
//
// Reads from the device must fail once no byte arrives within the read
// timeout; a device that blocks forever stalls the session.
//
// Example:
//
//	port, _ := transport.OpenSerial("/dev/ttyUSB0", transport.DefaultSerialConfig())
//	prog := bootloader.New(port,
//	    bootloader.WithProgressCallback(progressFunc),
//	    bootloader.WithReadTimeout(500*time.Millisecond),
//	)
func New(device io.ReadWriter, opts ...Option) *Programmer {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		device: device,
		config: cfg,
	}
}

// Program performs the complete download sequence:
//  1. Init handshake (0x7F, ACK)
//  2. For every chunk: Download command, packet number, payload block
//  3. Start command with the configured address (FinalizeAddress by default)
//
// Any status other than ACK aborts the session; nothing is retried or
// resumed. The context is checked before the handshake and before each chunk;
// a chunk that has started always runs to completion.
//
// Example:
//
//	img, _ := firmware.Load("tf-a-stm32mp135f-dk.stm32")
//	err := prog.Program(context.Background(), img)
func (p *Programmer) Program(ctx context.Context, fw *firmware.Image) (err error) {
	if fw == nil {
		return fmt.Errorf("firmware cannot be nil")
	}

	chunks, err := SplitChunks(fw.Data, p.config.ChunkSize)
	if err != nil {
		return err
	}

	startTime := time.Now()
	p.exchanges = 0
	bytesWritten := 0
	last := Progress{TotalChunks: len(chunks), TotalBytes: len(fw.Data)}

	defer func() {
		if err == nil {
			return
		}
		last.Phase = PhaseAborted
		last.Err = err
		last.Exchanges = p.exchanges
		last.ElapsedTime = time.Since(startTime)
		p.reportProgress(last)
		p.logError("download aborted", "error", err, "exchanges", p.exchanges)
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}

	if err := p.applyReadTimeout(); err != nil {
		return err
	}

	// Phase 1: Init handshake
	last.Phase = PhaseInit
	p.reportProgress(last)

	if err := p.SendInit(ctx); err != nil {
		return err
	}

	p.logDebug("bootloader acknowledged init",
		"image", fw.Name,
		"bytes", len(fw.Data),
		"chunks", len(chunks),
	)

	// Phase 2: Download chunks
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		if err := p.Download(ctx, chunk.Seq, chunk.Data); err != nil {
			return fmt.Errorf("download chunk %d/%d (seq=%d, %d bytes): %w",
				i+1, len(chunks), chunk.Seq, len(chunk.Data), err)
		}

		bytesWritten += len(chunk.Data)

		// Report progress (0% to 95%)
		last = Progress{
			Phase:        PhaseSending,
			Chunk:        i + 1,
			TotalChunks:  len(chunks),
			Sequence:     chunk.Seq,
			Percentage:   float64(i+1) / float64(len(chunks)) * 95,
			BytesWritten: bytesWritten,
			TotalBytes:   len(fw.Data),
			Exchanges:    p.exchanges,
			ElapsedTime:  time.Since(startTime),
		}
		p.reportProgress(last)
	}

	// Phase 3: Finalize
	last.Phase = PhaseFinalizing
	last.Percentage = 95
	last.ElapsedTime = time.Since(startTime)
	p.reportProgress(last)

	if err := p.Start(ctx, p.config.StartAddress); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}

	last.Phase = PhaseDone
	last.Percentage = 100
	last.Exchanges = p.exchanges
	last.ElapsedTime = time.Since(startTime)
	p.reportProgress(last)

	p.logInfo("download complete",
		"chunks", len(chunks),
		"bytes", bytesWritten,
		"exchanges", p.exchanges,
		"elapsed", last.ElapsedTime.String(),
	)

	return nil
}

// SendInit opens a session: it writes the init byte and waits for ACK.
// It must succeed exactly once before any Download or Start.
func (p *Programmer) SendInit(ctx context.Context) error {
	if err := p.exchange("init", protocol.EncodeInit()); err != nil {
		return err
	}
	p.exchanges++
	return nil
}

// Download sends one packet: the Download command, the packet number and the
// payload block, each acknowledged by the device. All frames are encoded
// before the first write, so codec errors never leave a packet half sent.
func (p *Programmer) Download(ctx context.Context, seq uint32, payload []byte) error {
	cmd, err := protocol.EncodeCommand(protocol.CmdDownload)
	if err != nil {
		return err
	}
	header, err := protocol.EncodeDownloadHeader(seq)
	if err != nil {
		return err
	}
	block, err := protocol.EncodePayloadBlock(payload)
	if err != nil {
		return err
	}

	if err := p.exchange("download command", cmd); err != nil {
		return err
	}
	p.exchanges++

	if err := p.exchange("download header", header); err != nil {
		return err
	}
	p.exchanges++

	if err := p.exchange("payload block", block); err != nil {
		return err
	}
	p.exchanges++

	return nil
}

// Start sends the Start command followed by addr. The device acknowledges
// both; together they count as one exchange.
func (p *Programmer) Start(ctx context.Context, addr uint32) error {
	cmd, err := protocol.EncodeCommand(protocol.CmdStart)
	if err != nil {
		return err
	}

	if err := p.exchange("start command", cmd); err != nil {
		return err
	}
	if err := p.exchange("start address", protocol.EncodeStart(addr)); err != nil {
		return err
	}
	p.exchanges++

	return nil
}

// Finalize completes a download without jumping to an address.
func (p *Programmer) Finalize(ctx context.Context) error {
	return p.Start(ctx, protocol.FinalizeAddress)
}

// exchange writes a frame and waits for its acknowledgement.
// Writes are never retried.
func (p *Programmer) exchange(op string, frame []byte) error {
	if _, err := p.device.Write(frame); err != nil {
		return &TransportError{Op: "write " + op, Err: err}
	}
	return p.awaitAck(op)
}

// awaitAck reads one status byte and requires ACK.
//
// A failed first read is retried once. A leading 0x00 is discarded and the
// following byte is used as the status.
//
// Device read errors are returned as *TransportError naming the step; use
// errors.Is or errors.As to reach the device error, not a type assertion.
func (p *Programmer) awaitAck(op string) error {
	b, err := p.readByte()
	if err != nil {
		p.logDebug("status read failed, retrying", "step", op, "error", err)

		b, err = p.readByte()
		if err != nil {
			return &TransportError{Op: "read " + op + " status", Err: err}
		}
	}

	if b == 0x00 {
		p.logDebug("discarding null byte before status", "step", op)

		b, err = p.readByte()
		if err != nil {
			return &TransportError{Op: "read " + op + " status", Err: err}
		}
	}

	p.logDebug("status", "step", op, "byte", protocol.DescribeStatus(b))

	if protocol.ClassifyAck(b) != protocol.AckOK {
		return &protocol.NotAcknowledgedError{Operation: op, Received: b}
	}
	return nil
}

func (p *Programmer) readByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(p.device, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// applyReadTimeout configures the device read timeout if it supports one.
func (p *Programmer) applyReadTimeout() error {
	setter, ok := p.device.(readTimeoutSetter)
	if !ok || p.config.ReadTimeout <= 0 {
		return nil
	}
	if err := setter.SetReadTimeout(p.config.ReadTimeout); err != nil {
		return &TransportError{Op: "set read timeout", Err: err}
	}
	return nil
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
