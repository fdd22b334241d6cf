package firmware

import (
	"fmt"
	"io"
	"os"
)

// Load reads a firmware image from the given file path.
//
// Example:
//
//	img, err := firmware.Load("tf-a-stm32mp135f-dk.stm32")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes\n", img.Size())
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := ParseReader(f)
	if err != nil {
		return nil, err
	}
	img.Name = path
	return img, nil
}

// ParseReader reads a firmware image from any io.Reader.
// This is useful for testing and reading from non-file sources.
func ParseReader(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return New("", data), nil
}
