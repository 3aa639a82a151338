package domain

import (
	"context"
	"image"
)

// RecognizeRequest is a single OCR call.
type RecognizeRequest struct {
	// Image is an encoded image (PNG, JPEG, ...).
	Image []byte
	// Language is a Tesseract language code such as "eng".
	Language string
	// Progress, when set, receives progress updates from the engine.
	Progress func(ProgressUpdate)
}

// Recognizer turns an image into text.
type Recognizer interface {
	Recognize(ctx context.Context, req RecognizeRequest) (string, error)
}

// DocumentLoader opens raw document bytes.
type DocumentLoader interface {
	Load(ctx context.Context, data []byte) (Document, error)
}

// Document is an opened, paginated document.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int
	// Page returns the page at a 1-based index.
	Page(number int) (Page, error)
	Close() error
}

// Page is a single document page.
type Page interface {
	Number() int
	// TextContent returns the embedded text layer. Rendering requires it to
	// have been fetched first.
	TextContent() (string, error)
	// ViewportSize returns the raster size in pixels at the given scale.
	ViewportSize(scale float64) (width, height int, err error)
	// Rasterize renders the page at the given scale.
	Rasterize(scale float64) (image.Image, error)
}

// ClipboardWriter writes text to a clipboard.
type ClipboardWriter interface {
	WriteText(ctx context.Context, text string) error
}

// HistoryStore persists finished session records.
type HistoryStore interface {
	Record(ctx context.Context, rec SessionRecord) error
	Recent(ctx context.Context, limit int) ([]SessionRecord, error)
}

// ResultCache caches final extraction text.
type ResultCache interface {
	GetText(ctx context.Context, key string) (string, bool, error)
	PutText(ctx context.Context, key, text string) error
}
