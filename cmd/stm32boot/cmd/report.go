package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/moffa90/go-stm32boot/bootloader"
	"github.com/moffa90/go-stm32boot/firmware"
	"github.com/moffa90/go-stm32boot/protocol"
	"github.com/moffa90/go-stm32boot/transport"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)

// field renders one "label value" line.
func field(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

// describeError explains a failed command by error kind.
func describeError(err error) string {
	var nae *protocol.NotAcknowledgedError
	var te *bootloader.TransportError
	var pce *firmware.PayloadChecksumError

	switch {
	case errors.As(err, &nae):
		hint := "the device rejected the frame"
		switch nae.Ack() {
		case protocol.AckAbort:
			hint = "the device aborted the download"
		case protocol.AckUnrecognized:
			hint = "unexpected reply; check baud rate and parity"
		}
		return fmt.Sprintf("%v\n  %s", err, hint)

	case errors.Is(err, transport.ErrTimeout):
		return fmt.Sprintf("%v\n  no reply from the device; is it in UART boot mode?", err)

	case errors.Is(err, transport.ErrConnectionClosed):
		return fmt.Sprintf("%v\n  the serial bridge closed the connection", err)

	case errors.As(err, &te):
		return fmt.Sprintf("%v\n  link failure during %s", err, te.Op)

	case errors.Is(err, bootloader.ErrImageEmpty):
		return fmt.Sprintf("%v\n  nothing to download", err)

	case errors.Is(err, protocol.ErrSequenceOverflow):
		return fmt.Sprintf("%v\n  image too large for 24-bit packet numbers", err)

	case errors.As(err, &pce):
		return fmt.Sprintf("%v\n  the image is corrupt; use --force to download anyway", err)

	case errors.Is(err, context.Canceled):
		return "download cancelled"

	default:
		return err.Error()
	}
}
