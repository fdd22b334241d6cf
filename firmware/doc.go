// Package firmware loads firmware images for the ROM bootloader.
//
// The bootloader receives the file byte-for-byte, so loading is a plain read.
// Images built for STM32MP parts usually start with an STM32 image header;
// this package decodes it so tools can show the load address and entry point
// and check the payload checksum before a download starts.
//
// # Usage
//
//	img, err := firmware.Load("tf-a-stm32mp135f-dk.stm32")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if img.Header != nil {
//	    fmt.Printf("entry point: 0x%08X\n", img.Header.EntryPoint)
//	    if err := img.Header.VerifyPayload(img.Data); err != nil {
//	        log.Printf("warning: %v", err)
//	    }
//	}
package firmware
