package bootloader

import (
	"time"

	"github.com/moffa90/go-stm32boot/protocol"
)

// DefaultReadTimeout is how long the programmer waits for a status byte.
const DefaultReadTimeout = 500 * time.Millisecond

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during programming to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ReadTimeout is applied to devices that implement SetReadTimeout
	ReadTimeout time.Duration

	// ChunkSize is the payload size of each download packet (1 to 256)
	ChunkSize int

	// StartAddress is sent with the final Start command.
	// FinalizeAddress completes the download without a jump.
	StartAddress uint32
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ReadTimeout:  DefaultReadTimeout,
		ChunkSize:    protocol.MaxPayloadSize,
		StartAddress: protocol.FinalizeAddress,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track download progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithLogger(slog.Default()))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithReadTimeout sets the status byte read timeout.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithReadTimeout(time.Second))
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ReadTimeout = timeout
		}
	}
}

// WithChunkSize sets the payload size of each download packet.
// Values outside 1 to 256 are ignored.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= protocol.MaxPayloadSize {
			c.ChunkSize = size
		}
	}
}

// WithStartAddress sets the address sent with the final Start command.
// The default, protocol.FinalizeAddress, finalizes the download without
// jumping. Any other value makes the ROM jump to that address instead.
func WithStartAddress(addr uint32) Option {
	return func(c *Config) {
		c.StartAddress = addr
	}
}
