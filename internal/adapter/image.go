package adapter

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
)

// ImageCodec defines an interface for decoding and encoding images
//
//go:generate mockgen -source=image.go -destination=../mocks/image.go -package=mocks -mock_names=ImageCodec=MockImageCodec
type ImageCodec interface {
	// Decode reads an image from r, sniffing the format from its header
	Decode(r io.Reader) (image.Image, string, error)

	// EncodePNG encodes an image to PNG format
	EncodePNG(w io.Writer, img image.Image) error

	// EncodeJPEG encodes an image to JPEG format with specified quality
	EncodeJPEG(w io.Writer, img image.Image, quality int) error
}

// RealImageCodec implements ImageCodec using standard library
type RealImageCodec struct{}

// NewImageCodec creates a new real image codec
func NewImageCodec() ImageCodec {
	return &RealImageCodec{}
}

// Decode reads an image from r, sniffing the format from its header
func (c *RealImageCodec) Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

// EncodePNG encodes an image to PNG format
func (c *RealImageCodec) EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// EncodeJPEG encodes an image to JPEG format with specified quality
func (c *RealImageCodec) EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}
