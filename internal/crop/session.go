// Package crop implements the interactive region-selection surface used
// before targeted recognition.
package crop

import (
	"errors"
	"image"
	"math"

	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/imaging"
)

// AutoCropArea is the fraction of each image dimension the initial
// selection covers, centered.
const AutoCropArea = 0.8

// ErrDestroyed is returned by a session after Destroy.
var ErrDestroyed = errors.New("crop session destroyed")

// Session is a crop overlay attached to one displayed image. The selection
// is always kept inside the image bounds.
type Session struct {
	source    *domain.Payload
	img       image.Image
	selection domain.Region
	destroyed bool
}

// Attach decodes the displayed image and creates a session with the default
// centered selection.
func Attach(p *domain.Payload) (*Session, error) {
	img, _, err := imaging.Decode(p.Bytes())
	if err != nil {
		return nil, domain.ConversionError("Failed to attach crop overlay", err)
	}
	s := &Session{source: p, img: img}
	s.selection = s.defaultSelection()
	return s, nil
}

// Source returns the payload the session was attached to.
func (s *Session) Source() *domain.Payload { return s.source }

// Bounds returns the image size as a region.
func (s *Session) Bounds() domain.Region {
	return domain.RegionFromRect(s.img.Bounds())
}

// Selection returns the current selection.
func (s *Session) Selection() domain.Region { return s.selection }

// SetSelection moves the selection, clamped to the image, and returns the
// clamped value.
func (s *Session) SetSelection(r domain.Region) domain.Region {
	s.selection = s.clamp(r)
	return s.selection
}

// Cropped returns the selected area as a new surface.
func (s *Session) Cropped() (image.Image, error) {
	if s.destroyed {
		return nil, ErrDestroyed
	}
	if s.selection.IsEmpty() {
		return nil, imaging.ErrEmptyCrop
	}
	return imaging.Crop(s.img, s.selection.Rect())
}

// CroppedPNG returns the selected area PNG-encoded.
func (s *Session) CroppedPNG() ([]byte, error) {
	img, err := s.Cropped()
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(img)
}

// Destroy detaches the overlay. It is safe to call more than once.
func (s *Session) Destroy() {
	s.destroyed = true
	s.img = nil
}

// Destroyed reports whether Destroy has been called.
func (s *Session) Destroyed() bool { return s.destroyed }

func (s *Session) defaultSelection() domain.Region {
	b := s.img.Bounds()
	w := float64(b.Dx()) * AutoCropArea
	h := float64(b.Dy()) * AutoCropArea
	return domain.Region{
		X:      float64(b.Min.X) + (float64(b.Dx())-w)/2,
		Y:      float64(b.Min.Y) + (float64(b.Dy())-h)/2,
		Width:  w,
		Height: h,
	}
}

func (s *Session) clamp(r domain.Region) domain.Region {
	b := s.img.Bounds()
	x0 := math.Max(r.X, float64(b.Min.X))
	y0 := math.Max(r.Y, float64(b.Min.Y))
	x1 := math.Min(r.X+r.Width, float64(b.Max.X))
	y1 := math.Min(r.Y+r.Height, float64(b.Max.Y))
	if x1 <= x0 || y1 <= y0 {
		return domain.Region{X: x0, Y: y0}
	}
	return domain.Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
