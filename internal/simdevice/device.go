// Package simdevice simulates an STM32 ROM bootloader on the UART protocol.
//
// The Device validates every frame it receives (complements, checksums,
// packet numbering), answers with status bytes and keeps the downloaded
// packets so the image can be reassembled. Faults can be injected per
// protocol step.
package simdevice

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/moffa90/go-stm32boot/protocol"
	"github.com/moffa90/go-stm32boot/transport"
)

// Step identifies the protocol step a reply belongs to.
type Step string

const (
	StepInit         Step = "init"
	StepCommand      Step = "download command"
	StepHeader       Step = "download header"
	StepPayload      Step = "payload block"
	StepStartCommand Step = "start command"
	StepStartAddress Step = "start address"
)

// FaultKind selects how an injected fault changes a reply.
type FaultKind int

const (
	// ReplyStatus sends Fault.Status instead of ACK
	ReplyStatus FaultKind = iota

	// DropReply sends nothing, so the host times out
	DropReply

	// StallReply makes the first read after the reply time out
	StallReply

	// LeadingZero sends 0x00 before the ACK
	LeadingZero
)

// Fault describes a one-shot deviation from the normal reply.
type Fault struct {
	Step Step

	// Packet selects the download packet for StepCommand, StepHeader and
	// StepPayload; it is ignored for other steps
	Packet uint32

	Kind   FaultKind
	Status byte
}

type state int

const (
	stateIdle state = iota
	stateCommand
	stateHeader
	statePayload
	stateStart
)

// Device is a simulated ROM bootloader. It implements io.ReadWriter.
type Device struct {
	mu sync.Mutex

	state   state
	pending []byte
	out     []byte
	stalls  int

	packets    map[uint32][]byte
	order      []uint32
	currentSeq uint32

	started   bool
	startAddr uint32

	faults      []Fault
	leadingZero bool
	latency     time.Duration
	readTimeout time.Duration

	writes  [][]byte
	replies int
}

// Option configures a Device.
type Option func(*Device)

// WithFault injects a one-shot fault.
func WithFault(f Fault) Option {
	return func(d *Device) {
		d.faults = append(d.faults, f)
	}
}

// WithLeadingZero makes every reply start with a spurious 0x00 byte.
func WithLeadingZero() Option {
	return func(d *Device) {
		d.leadingZero = true
	}
}

// WithLatency delays every write by the given duration.
func WithLatency(latency time.Duration) Option {
	return func(d *Device) {
		d.latency = latency
	}
}

// New creates a simulated device waiting for the init byte.
func New(opts ...Option) *Device {
	d := &Device{
		packets: make(map[uint32][]byte),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Read returns queued status bytes. With nothing queued it returns
// transport.ErrTimeout, like a real link after its read timeout.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(p) == 0 {
		return 0, nil
	}
	if d.stalls > 0 {
		d.stalls--
		return 0, transport.ErrTimeout
	}
	if len(d.out) == 0 {
		return 0, transport.ErrTimeout
	}

	n := copy(p, d.out)
	d.out = d.out[n:]
	return n, nil
}

// Write feeds bytes to the bootloader state machine.
func (d *Device) Write(p []byte) (int, error) {
	if d.latency > 0 {
		time.Sleep(d.latency)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.writes = append(d.writes, append([]byte(nil), p...))
	for _, b := range p {
		d.feed(b)
	}
	return len(p), nil
}

// SetReadTimeout records the timeout; reads never block.
func (d *Device) SetReadTimeout(timeout time.Duration) error {
	d.mu.Lock()
	d.readTimeout = timeout
	d.mu.Unlock()
	return nil
}

// ReadTimeout returns the last timeout set by the host.
func (d *Device) ReadTimeout() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readTimeout
}

// Drain discards queued replies.
func (d *Device) Drain() error {
	d.mu.Lock()
	d.out = nil
	d.mu.Unlock()
	return nil
}

func (d *Device) Close() error {
	return nil
}

func (d *Device) feed(b byte) {
	d.pending = append(d.pending, b)

	switch d.state {
	case stateIdle:
		d.pending = d.pending[:0]
		if b == protocol.InitByte {
			if d.reply(StepInit, 0) {
				d.state = stateCommand
			}
		} else {
			d.nack()
		}

	case stateCommand:
		if len(d.pending) < protocol.CommandFrameSize {
			return
		}
		cmd, err := protocol.DecodeCommand(d.pending)
		d.pending = d.pending[:0]
		if err != nil {
			d.nack()
			return
		}
		switch cmd {
		case protocol.CmdDownload:
			if d.reply(StepCommand, d.nextSeq()) {
				d.state = stateHeader
			}
		case protocol.CmdStart:
			if d.reply(StepStartCommand, 0) {
				d.state = stateStart
			}
		default:
			d.nack()
		}

	case stateHeader:
		if len(d.pending) < protocol.DownloadHeaderSize {
			return
		}
		seq, err := protocol.DecodeDownloadHeader(d.pending)
		d.pending = d.pending[:0]
		if err != nil {
			d.nack()
			d.state = stateCommand
			return
		}
		d.currentSeq = seq
		if d.reply(StepHeader, seq) {
			d.state = statePayload
		} else {
			d.state = stateCommand
		}

	case statePayload:
		if len(d.pending) < int(d.pending[0])+1+protocol.PayloadOverhead {
			return
		}
		data, err := protocol.DecodePayloadBlock(d.pending)
		if err != nil {
			d.pending = d.pending[:0]
			d.nack()
			d.state = stateCommand
			return
		}
		if d.reply(StepPayload, d.currentSeq) {
			if _, seen := d.packets[d.currentSeq]; !seen {
				d.order = append(d.order, d.currentSeq)
			}
			d.packets[d.currentSeq] = append([]byte(nil), data...)
		}
		d.pending = d.pending[:0]
		d.state = stateCommand

	case stateStart:
		if len(d.pending) < protocol.StartFrameSize {
			return
		}
		addr, err := protocol.DecodeStart(d.pending)
		d.pending = d.pending[:0]
		d.state = stateCommand
		if err != nil {
			d.nack()
			return
		}
		if d.reply(StepStartAddress, 0) {
			d.started = true
			d.startAddr = addr
		}
	}
}

// nextSeq is the packet number the next Download command is expected to carry.
func (d *Device) nextSeq() uint32 {
	return uint32(len(d.order))
}

// reply queues the status byte for step and reports whether it was an ACK.
func (d *Device) reply(step Step, seq uint32) bool {
	d.replies++

	for i, f := range d.faults {
		if f.Step != step {
			continue
		}
		if (step == StepCommand || step == StepHeader || step == StepPayload) && f.Packet != seq {
			continue
		}
		d.faults = append(d.faults[:i], d.faults[i+1:]...)

		switch f.Kind {
		case DropReply:
			return false
		case StallReply:
			d.stalls++
			d.queue(protocol.StatusAck)
			return true
		case LeadingZero:
			d.out = append(d.out, 0x00)
			d.queue(protocol.StatusAck)
			return true
		default:
			d.queue(f.Status)
			return f.Status == protocol.StatusAck
		}
	}

	d.queue(protocol.StatusAck)
	return true
}

func (d *Device) nack() {
	d.replies++
	d.queue(protocol.StatusNack)
}

func (d *Device) queue(status byte) {
	if d.leadingZero {
		d.out = append(d.out, 0x00)
	}
	d.out = append(d.out, status)
}

// Image reassembles the downloaded packets in packet number order.
// It fails if packet numbers have gaps.
func (d *Device) Image() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	seqs := make([]uint32, 0, len(d.packets))
	for seq := range d.packets {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	var image []byte
	for i, seq := range seqs {
		if seq != uint32(i) {
			return nil, fmt.Errorf("missing packet %d", i)
		}
		image = append(image, d.packets[seq]...)
	}
	return image, nil
}

// Sequence returns the packet numbers in the order they were accepted.
func (d *Device) Sequence() []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint32(nil), d.order...)
}

// Started reports whether a Start frame was accepted and its address.
func (d *Device) Started() (uint32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startAddr, d.started
}

// Writes returns a copy of every write received from the host.
func (d *Device) Writes() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	writes := make([][]byte, len(d.writes))
	for i, w := range d.writes {
		writes[i] = append([]byte(nil), w...)
	}
	return writes
}

// Replies returns the number of status bytes the device has produced.
func (d *Device) Replies() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.replies
}
