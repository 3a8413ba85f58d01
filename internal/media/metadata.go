// Package media scrubs uploaded receipt images before they are stored.
package media

import (
	"bytes"
	"image/jpeg"
	"image/png"
)

// Sanitize re-encodes JPEG and PNG receipts to remove EXIF, GPS and other
// metadata. Other content types, and images that fail to decode, are returned
// unchanged: intake never rejects a receipt over metadata scrubbing.
func Sanitize(data []byte, contentType string) []byte {
	switch contentType {
	case "image/jpeg":
		return stripJPEG(data)
	case "image/png":
		return stripPNG(data)
	default:
		return data
	}
}

func stripJPEG(data []byte) []byte {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
		return data
	}
	return buf.Bytes()
}

func stripPNG(data []byte) []byte {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return data
	}
	return buf.Bytes()
}
