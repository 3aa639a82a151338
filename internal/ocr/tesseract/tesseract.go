// Package tesseract implements domain.Recognizer with the gosseract
// bindings to libtesseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/spherical/textgrab/internal/domain"
)

// Config selects trained data and segmentation for the engine.
type Config struct {
	TessdataPrefix string
	PageSegMode    int
	// Variables are passed through to SetVariable (e.g. tessedit_char_whitelist).
	Variables map[string]string
}

// Engine recognizes text with a fresh gosseract client per call. The
// underlying TessBaseAPI is not safe for concurrent use, so clients are never
// shared.
type Engine struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a Tesseract-backed recognizer.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, clientFactory: gosseract.NewClient}
}

// Recognize performs OCR on a single encoded image. Surrounding whitespace
// is trimmed from the result.
func (e *Engine) Recognize(ctx context.Context, req domain.RecognizeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		c := e.clientFactory()
		defer c.Close()
		text, err := e.recognizeWithClient(c, req)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case out := <-done:
		return out.text, out.err
	}
}

func (e *Engine) recognizeWithClient(c *gosseract.Client, req domain.RecognizeRequest) (string, error) {
	if e.cfg.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if req.Language != "" {
		if err := c.SetLanguage(splitLanguages(req.Language)...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if e.cfg.PageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PageSegMode)); err != nil {
			return "", fmt.Errorf("set page seg mode: %w", err)
		}
	}
	for k, v := range e.cfg.Variables {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return "", fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	if err := c.SetImageFromBytes(req.Image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	if req.Progress != nil {
		req.Progress(domain.ProgressUpdate{Status: "recognizing text", Progress: 0.5})
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// splitLanguages accepts Tesseract's "eng+deu" form.
func splitLanguages(lang string) []string {
	parts := strings.Split(lang, "+")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
