// Package preview renders what the preview area shows for a payload.
package preview

import (
	"image"

	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/imaging"
)

// Renderer produces previews. Document pages are rasterized at Scale.
type Renderer struct {
	scale    float64
	maxWidth int
}

// NewRenderer creates a preview renderer. maxWidth > 0 downsizes wider
// previews; recognition always works on full-size rasters.
func NewRenderer(scale float64, maxWidth int) *Renderer {
	return &Renderer{scale: scale, maxWidth: maxWidth}
}

// Scale returns the rasterization factor shared with extraction.
func (r *Renderer) Scale() float64 { return r.scale }

// Image previews an image payload: the image itself, unless it needs
// downsizing.
func (r *Renderer) Image(p *domain.Payload) (*domain.Preview, error) {
	data := p.Bytes()
	cfg, _, err := imaging.DecodeConfig(data)
	if err != nil {
		return nil, domain.ConversionError("Failed to read image for preview", err)
	}

	if r.maxWidth > 0 && cfg.Width > r.maxWidth {
		img, _, err := imaging.Decode(data)
		if err != nil {
			return nil, domain.ConversionError("Failed to decode image for preview", err)
		}
		return r.encode(domain.PayloadImage, imaging.FitWidth(img, r.maxWidth), 0)
	}

	return &domain.Preview{
		Kind:      domain.PayloadImage,
		MediaType: p.MediaType,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Data:      data,
	}, nil
}

// Document previews the first page of an open document.
func (r *Renderer) Document(doc domain.Document) (*domain.Preview, error) {
	count := doc.PageCount()
	if count == 0 {
		return &domain.Preview{Kind: domain.PayloadDocument, MediaType: "image/png"}, nil
	}

	page, err := doc.Page(1)
	if err != nil {
		return nil, err
	}
	img, err := page.Rasterize(r.scale)
	if err != nil {
		return nil, err
	}
	return r.encode(domain.PayloadDocument, imaging.FitWidth(img, r.maxWidth), count)
}

func (r *Renderer) encode(kind domain.PayloadKind, img image.Image, pages int) (*domain.Preview, error) {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, domain.ConversionError("Failed to encode preview", err)
	}
	b := img.Bounds()
	return &domain.Preview{
		Kind:      kind,
		MediaType: "image/png",
		Width:     b.Dx(),
		Height:    b.Dy(),
		PageCount: pages,
		Data:      data,
	}, nil
}
