package firmware

// Image represents a firmware image loaded for download.
type Image struct {
	// Name identifies the image source, usually the file path
	Name string

	// Data is the complete file content, sent to the device as-is
	Data []byte

	// Header is the decoded STM32 image header, or nil if the file has none
	Header *Header
}

// Size returns the number of bytes that will be downloaded.
func (img *Image) Size() int {
	return len(img.Data)
}

// New wraps raw bytes in an Image and decodes the header if one is present.
func New(name string, data []byte) *Image {
	img := &Image{Name: name, Data: data}
	if hdr, err := ParseHeader(data); err == nil {
		img.Header = hdr
	}
	return img
}
