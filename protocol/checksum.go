package protocol

// Checksum computes the XOR fold of data with a zero seed.
//
// The bootloader uses it for every frame segment: the packet number bytes of
// a download header, the four bytes of a start address, and the length byte
// plus payload of a data block.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}
