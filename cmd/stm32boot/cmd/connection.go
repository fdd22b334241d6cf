package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/moffa90/go-stm32boot/internal/simdevice"
	"github.com/moffa90/go-stm32boot/transport"
	"golang.org/x/term"
)

// Link is the byte stream to the bootloader: a serial port, a WebSocket
// serial bridge or the simulator.
type Link interface {
	io.ReadWriteCloser

	// Drain discards input received before the session starts
	Drain() error
}

// linkOptions holds the flash flags that affect how the link is opened.
type linkOptions struct {
	readTimeout time.Duration
	resetCycles int
	simulate    bool
}

// OpenLink opens the link selected by the connection flags.
// Returns the link and a description for display.
func OpenLink(opts linkOptions) (Link, string, error) {
	if opts.simulate {
		return simdevice.New(simdevice.WithLatency(2 * time.Millisecond)), "simulated device", nil
	}

	if portName != "" && wsURL != "" {
		return nil, "", fmt.Errorf("--port and --url are mutually exclusive")
	}

	if wsURL != "" {
		var password string
		if wsUsername != "" {
			pw, err := GetPassword()
			if err != nil {
				return nil, "", err
			}
			password = pw
		}

		ws, err := transport.DialWebSocket(wsURL, transport.WebSocketConfig{
			Username:         wsUsername,
			Password:         password,
			SkipSSLVerify:    wsNoSSLVerify,
			HandshakeTimeout: 15 * time.Second,
			ReadTimeout:      opts.readTimeout,
		})
		if err != nil {
			return nil, "", err
		}
		return ws, wsURL, nil
	}

	if portName == "" {
		return nil, "", fmt.Errorf("no connection specified: use --port, --url or --simulate")
	}

	cfg := transport.DefaultSerialConfig()
	cfg.BaudRate = baudRate
	cfg.ReadTimeout = opts.readTimeout

	if opts.resetCycles > 0 {
		failed := transport.ResetCycles(portName, cfg, opts.resetCycles)
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "warning: %d of %d port reset cycles failed\n", failed, opts.resetCycles)
		}
	}

	port, err := transport.OpenSerial(portName, cfg)
	if err != nil {
		return nil, "", err
	}
	return port, fmt.Sprintf("%s @ %d 8E1", portName, baudRate), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("STM32BOOT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		passwordBytes, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(passwordBytes), nil
	}

	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil && password == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(password), nil
}
