// Package pdf loads PDF documents and rasterizes their pages with MuPDF.
package pdf

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/spherical/textgrab/internal/domain"
)

// BaseDPI is the resolution at which a scale of 1.0 maps one PDF point to
// one pixel.
const BaseDPI = 72.0

// Loader opens PDF bytes with go-fitz.
type Loader struct {
	validator *Validator
}

// NewLoader creates a loader rejecting documents larger than maxBytes.
func NewLoader(maxBytes int64) *Loader {
	return &Loader{validator: NewValidator(maxBytes)}
}

// Load opens a document from memory.
func (l *Loader) Load(ctx context.Context, data []byte) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.validator.ValidateData(data); err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, domain.ConversionError("Failed to open PDF", err)
	}

	return &Document{doc: doc, validator: l.validator}, nil
}

// Document is an open go-fitz document.
type Document struct {
	mu        sync.Mutex
	doc       *fitz.Document
	validator *Validator
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return 0
	}
	return d.doc.NumPage()
}

// Page returns the page at a 1-based index.
func (d *Document) Page(number int) (domain.Page, error) {
	count := d.PageCount()
	if number < 1 || number > count {
		return nil, domain.ValidationError(fmt.Sprintf("page %d out of range 1..%d", number, count), nil)
	}
	return &Page{doc: d, number: number}, nil
}

// Close releases the MuPDF document.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}

func (d *Document) withDoc(fn func(doc *fitz.Document) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return domain.ConversionError("document is closed", nil)
	}
	return fn(d.doc)
}

// Page is a lazily rendered page of a Document.
type Page struct {
	doc    *Document
	number int
}

// Number returns the 1-based page number.
func (p *Page) Number() int { return p.number }

// TextContent returns the page's embedded text layer.
func (p *Page) TextContent() (string, error) {
	var text string
	err := p.doc.withDoc(func(doc *fitz.Document) error {
		t, err := doc.Text(p.number - 1)
		if err != nil {
			return domain.ConversionError(fmt.Sprintf("Failed to read text of page %d", p.number), err)
		}
		text = t
		return nil
	})
	return text, err
}

// ViewportSize returns the raster dimensions at scale.
func (p *Page) ViewportSize(scale float64) (int, int, error) {
	if err := p.doc.validator.ValidateScale(scale); err != nil {
		return 0, 0, err
	}
	var w, h int
	err := p.doc.withDoc(func(doc *fitz.Document) error {
		bounds, err := doc.Bound(p.number - 1)
		if err != nil {
			return domain.ConversionError(fmt.Sprintf("Failed to measure page %d", p.number), err)
		}
		w = int(math.Round(float64(bounds.Dx()) * scale))
		h = int(math.Round(float64(bounds.Dy()) * scale))
		return nil
	})
	return w, h, err
}

// Rasterize renders the page at scale (1.0 = 72 DPI).
func (p *Page) Rasterize(scale float64) (image.Image, error) {
	if err := p.doc.validator.ValidateScale(scale); err != nil {
		return nil, err
	}
	var img image.Image
	err := p.doc.withDoc(func(doc *fitz.Document) error {
		rgba, err := doc.ImageDPI(p.number-1, BaseDPI*scale)
		if err != nil {
			return domain.ConversionError(fmt.Sprintf("Failed to render page %d", p.number), err)
		}
		img = rgba
		return nil
	})
	return img, err
}
