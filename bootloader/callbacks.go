package bootloader

import "time"

// Phase is a state of the download session.
type Phase string

// Session phases, in order. A failure in any phase ends in PhaseAborted.
const (
	PhaseInit       Phase = "init"
	PhaseSending    Phase = "sending"
	PhaseFinalizing Phase = "finalizing"
	PhaseDone       Phase = "done"
	PhaseAborted    Phase = "aborted"
)

// Progress contains information about the download progress.
// Passed to ProgressCallback during Program.
type Progress struct {
	// Phase is the current session state
	Phase Phase

	// Chunk is the number of chunks acknowledged so far
	Chunk int

	// TotalChunks is the number of chunks in the image
	TotalChunks int

	// Sequence is the packet number of the last acknowledged chunk
	Sequence uint32

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the number of image bytes acknowledged so far
	BytesWritten int

	// TotalBytes is the image size
	TotalBytes int

	// Exchanges counts completed protocol steps: the init handshake, three
	// per chunk, and the finalize step
	Exchanges int

	// ElapsedTime is the time elapsed since the session started
	ElapsedTime time.Duration

	// Err is the reason for PhaseAborted
	Err error
}

// ProgressCallback is called after every state change and every chunk.
// Implementations should return quickly to avoid stalling the link.
//
// Example:
//
//	prog := bootloader.New(device,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.1f%% - chunk %d/%d\n",
//	            p.Phase, p.Percentage, p.Chunk, p.TotalChunks)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the programmer.
// *slog.Logger satisfies it.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	prog := bootloader.New(device, bootloader.WithLogger(logger))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
