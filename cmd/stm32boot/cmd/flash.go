package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/moffa90/go-stm32boot/bootloader"
	"github.com/moffa90/go-stm32boot/firmware"
	"github.com/moffa90/go-stm32boot/protocol"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flashFile         string
	flashTimeout      time.Duration
	flashChunkSize    int
	flashResetCycles  int
	flashStartAddress string
	flashNoDrain      bool
	flashSimulate     bool
	flashNoTUI        bool
	flashForce        bool
)

var flashCmd = &cobra.Command{
	Use:   "flash",
	Short: "Download a firmware image to the device",
	Long: `Download a firmware image through the ROM bootloader.

The session sends the init byte, then every packet as a Download command,
packet number and payload block, and finishes with a Start command. Any
reply other than ACK aborts the download; the tool never retries a packet.

On a terminal a live progress view is shown. Use --no-tui or --verbose for
plain output.

--reset-cycles opens and closes the serial port before the session, which
some USB-UART adapters need after the board is reset.`,
	Args: cobra.NoArgs,
	RunE: runFlash,
}

func init() {
	flashCmd.Flags().StringVarP(&flashFile, "file", "f", "", "Firmware image to download")
	flashCmd.Flags().DurationVar(&flashTimeout, "timeout", bootloader.DefaultReadTimeout, "Status byte read timeout")
	flashCmd.Flags().IntVar(&flashChunkSize, "chunk-size", protocol.MaxPayloadSize, "Payload bytes per packet (1-256)")
	flashCmd.Flags().IntVar(&flashResetCycles, "reset-cycles", 0, "Open/close the serial port this many times first")
	flashCmd.Flags().StringVar(&flashStartAddress, "start-address", "0xFFFFFFFF", "Start command address; 0xFFFFFFFF finalizes, any other value makes the ROM jump there instead")
	flashCmd.Flags().BoolVar(&flashNoDrain, "no-drain", false, "Keep bytes received before the session")
	flashCmd.Flags().BoolVar(&flashSimulate, "simulate", false, "Download to a simulated device")
	flashCmd.Flags().BoolVar(&flashNoTUI, "no-tui", false, "Disable the progress view")
	flashCmd.Flags().BoolVar(&flashForce, "force", false, "Download even if the header checksum does not match")
	_ = flashCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(flashCmd)
}

func runFlash(cmd *cobra.Command, args []string) error {
	if flashChunkSize < 1 || flashChunkSize > protocol.MaxPayloadSize {
		return fmt.Errorf("--chunk-size must be between 1 and %d", protocol.MaxPayloadSize)
	}
	startAddr, err := strconv.ParseUint(flashStartAddress, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid --start-address %q: %w", flashStartAddress, err)
	}

	img, err := firmware.Load(flashFile)
	if err != nil {
		return err
	}
	if err := checkHeader(img); err != nil {
		if !flashForce {
			return err
		}
		fmt.Fprintln(os.Stderr, warningStyle.Render("warning: "+err.Error()))
	}

	link, linkInfo, err := OpenLink(linkOptions{
		readTimeout: flashTimeout,
		resetCycles: flashResetCycles,
		simulate:    flashSimulate,
	})
	if err != nil {
		return err
	}
	defer link.Close()

	logger := newLogger()
	if !flashNoDrain {
		if err := link.Drain(); err != nil {
			logger.Warn("failed to drain input", "error", err)
		}
	}

	opts := []bootloader.Option{
		bootloader.WithReadTimeout(flashTimeout),
		bootloader.WithChunkSize(flashChunkSize),
		bootloader.WithStartAddress(uint32(startAddr)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	useTUI := !flashNoTUI && !verbose && isTerminal(out)
	if useTUI {
		err = runFlashTUI(ctx, link, linkInfo, img, opts)
	} else {
		opts = append(opts, bootloader.WithLogger(logger))
		err = runFlashPlain(ctx, out, link, linkInfo, img, opts)
	}
	if err != nil {
		return err
	}

	if dev, ok := link.(interface{ Image() ([]byte, error) }); ok {
		if got, err := dev.Image(); err != nil || len(got) != img.Size() {
			return fmt.Errorf("simulated device holds an incomplete image")
		}
	}

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Downloaded %s (%d bytes) to %s", img.Name, img.Size(), linkInfo)))
	return nil
}

// checkHeader verifies a version 1 header against its payload.
// Images without a header, or with a newer header, are not checked.
func checkHeader(img *firmware.Image) error {
	if img.Header == nil {
		return nil
	}
	err := img.Header.VerifyPayload(img.Data)
	if errors.Is(err, firmware.ErrUnsupportedHeader) {
		return nil
	}
	return err
}

// runFlashPlain prints a line per phase change and every 10 percent.
func runFlashPlain(ctx context.Context, out io.Writer, link Link, linkInfo string, img *firmware.Image, opts []bootloader.Option) error {
	fmt.Fprintf(out, "Downloading %s (%d bytes) to %s\n", img.Name, img.Size(), linkInfo)

	var lastPhase bootloader.Phase
	lastStep := -1
	opts = append(opts, bootloader.WithProgressCallback(func(p bootloader.Progress) {
		step := int(p.Percentage) / 10
		if p.Phase == lastPhase && step == lastStep {
			return
		}
		lastPhase, lastStep = p.Phase, step

		switch p.Phase {
		case bootloader.PhaseSending:
			fmt.Fprintf(out, "  %5.1f%%  packet %d/%d  %d/%d bytes\n",
				p.Percentage, p.Chunk, p.TotalChunks, p.BytesWritten, p.TotalBytes)
		case bootloader.PhaseAborted:
			fmt.Fprintf(out, "  aborted after %d exchanges\n", p.Exchanges)
		default:
			fmt.Fprintf(out, "  %s\n", p.Phase)
		}
	}))

	return bootloader.New(link, opts...).Program(ctx, img)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
