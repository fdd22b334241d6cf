package cmd

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-stm32boot/bootloader"
	"github.com/moffa90/go-stm32boot/firmware"
	"github.com/moffa90/go-stm32boot/protocol"
	"github.com/spf13/cobra"
)

var inspectChunkSize int

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show how an image will be downloaded",
	Long: `Inspect a firmware image without connecting to a device.

Prints the image size, the number of download packets and protocol exchanges,
and the STM32 image header fields when the file has one. Version 1 headers
are checked against the payload checksum.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectChunkSize, "chunk-size", protocol.MaxPayloadSize, "Payload bytes per packet (1-256)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	img, err := firmware.Load(args[0])
	if err != nil {
		return err
	}

	chunks, err := bootloader.SplitChunks(img.Data, inspectChunkSize)
	if err != nil {
		return err
	}
	n := len(chunks)
	lastSize := len(chunks[n-1].Data)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Image"))
	fmt.Fprintln(out, field("File", img.Name))
	fmt.Fprintln(out, field("Size", fmt.Sprintf("%d bytes", img.Size())))
	fmt.Fprintln(out, field("Packets", fmt.Sprintf("%d (%d-byte payloads, last %d bytes)", n, inspectChunkSize, lastSize)))
	fmt.Fprintln(out, field("Exchanges", fmt.Sprintf("%d (%d status bytes)", 3*n+2, 3*n+3)))

	hdr := img.Header
	if hdr == nil {
		fmt.Fprintln(out, dimStyle.Render("No STM32 image header"))
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Header"))
	fmt.Fprintln(out, field("Version", fmt.Sprintf("%d.%d", hdr.VersionMajor, hdr.VersionMinor)))
	fmt.Fprintln(out, field("Payload", fmt.Sprintf("%d bytes", hdr.PayloadLength)))
	fmt.Fprintln(out, field("Checksum", fmt.Sprintf("0x%08X", hdr.PayloadChecksum)))
	fmt.Fprintln(out, field("Entry", fmt.Sprintf("0x%08X", hdr.EntryPoint)))
	fmt.Fprintln(out, field("Load", fmt.Sprintf("0x%08X", hdr.LoadAddress)))
	fmt.Fprintln(out, field("Rollback", fmt.Sprintf("%d", hdr.ImageVersion)))

	switch err := hdr.VerifyPayload(img.Data); {
	case err == nil:
		fmt.Fprintln(out, successStyle.Render("Payload checksum OK"))
	case errors.Is(err, firmware.ErrUnsupportedHeader):
		fmt.Fprintln(out, dimStyle.Render("Payload checksum not verified: "+err.Error()))
	default:
		fmt.Fprintln(out, errorStyle.Render(err.Error()))
	}
	return nil
}
