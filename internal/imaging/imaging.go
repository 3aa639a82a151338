// Package imaging decodes, crops, scales and encodes the raster surfaces
// passed between preview, crop and OCR.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyCrop is returned when a crop region does not overlap the image.
var ErrEmptyCrop = errors.New("crop region is empty")

// Decode decodes any registered image format.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// DecodeConfig returns the dimensions without decoding pixel data.
func DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("decode image config: %w", err)
	}
	return cfg, format, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Crop copies the part of img inside rect onto a new surface whose origin
// is (0, 0). rect is clipped to the image bounds first.
func Crop(img image.Image, rect image.Rectangle) (image.Image, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil, ErrEmptyCrop
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst, nil
}

// FitWidth scales img down to maxWidth keeping its aspect ratio. Images
// already narrow enough, or a non-positive maxWidth, return img unchanged.
func FitWidth(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
