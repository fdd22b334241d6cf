package bootloader

import (
	"fmt"

	"github.com/moffa90/go-stm32boot/protocol"
)

// Chunk is one download packet of a firmware image.
type Chunk struct {
	// Seq is the packet number; the device orders chunks by it
	Seq uint32

	// Data is a slice of the image, never empty
	Data []byte
}

// ChunkCount returns ceil(imageSize / chunkSize).
func ChunkCount(imageSize, chunkSize int) int {
	if imageSize <= 0 || chunkSize <= 0 {
		return 0
	}
	return (imageSize + chunkSize - 1) / chunkSize
}

// SplitChunks splits data into consecutive chunks of at most size bytes,
// numbered from 0. Only the last chunk may be shorter. The chunks alias data.
//
// Images that need more packets than a 24-bit packet number can address fail
// with protocol.ErrSequenceOverflow.
func SplitChunks(data []byte, size int) ([]Chunk, error) {
	if len(data) == 0 {
		return nil, ErrImageEmpty
	}
	if size <= 0 || size > protocol.MaxPayloadSize {
		return nil, fmt.Errorf("chunk size %d out of range 1-%d", size, protocol.MaxPayloadSize)
	}

	n := ChunkCount(len(data), size)
	if n-1 > protocol.MaxSequenceNumber {
		return nil, fmt.Errorf("%w: image of %d bytes needs %d packets", protocol.ErrSequenceOverflow, len(data), n)
	}

	chunks := make([]Chunk, 0, n)
	for i := 0; i < n; i++ {
		start := i * size
		end := min(start+size, len(data))
		chunks = append(chunks, Chunk{
			Seq:  uint32(i),
			Data: data[start:end],
		})
	}
	return chunks, nil
}
