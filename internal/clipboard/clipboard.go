// Package clipboard exports recognized text to a clipboard.
package clipboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/observability"
)

// Scope selects what Copy exports.
type Scope string

const (
	// ScopeAll copies the whole display text.
	ScopeAll Scope = "all"
	// ScopeSelection copies only the caller's selection.
	ScopeSelection Scope = "selection"
)

// ParseScope converts a request value into a Scope. An empty value means
// ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeSelection:
		return ScopeSelection, nil
	default:
		return "", domain.ValidationError(fmt.Sprintf("unknown copy scope %q", s), nil)
	}
}

// Result describes the outcome of a Copy.
type Result struct {
	// Message is the user notice. Empty when the write failed.
	Message string `json:"message,omitempty"`
	Copied  bool   `json:"copied"`
	Text    string `json:"text,omitempty"`
}

// Exporter copies text through a ClipboardWriter.
type Exporter struct {
	writer domain.ClipboardWriter
	logger *observability.Logger
}

// NewExporter creates an exporter.
func NewExporter(writer domain.ClipboardWriter, logger *observability.Logger) *Exporter {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Exporter{writer: writer, logger: logger}
}

// Copy writes the chosen text. Empty text is reported without touching the
// clipboard, and write failures are only logged.
func (e *Exporter) Copy(ctx context.Context, scope Scope, selection, displayText string) Result {
	text := displayText
	if scope == ScopeSelection {
		text = selection
	}

	if text == "" {
		return Result{Message: domain.MsgNothingToCopy}
	}

	if err := e.writer.WriteText(ctx, text); err != nil {
		e.logger.Error().
			Err(domain.ClipboardError("failed to copy text", err)).
			Str("scope", string(scope)).
			Msg("Clipboard write failed")
		return Result{}
	}

	e.logger.Debug().Str("scope", string(scope)).Int("length", len(text)).Msg("Copied text")
	return Result{Message: domain.MsgCopied, Copied: true, Text: text}
}

// SystemWriter writes to the operating system clipboard.
type SystemWriter struct{}

// WriteText implements domain.ClipboardWriter.
func (SystemWriter) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return fmt.Errorf("system clipboard unavailable")
	}
	return clipboard.WriteAll(text)
}

// BufferWriter keeps the last written text in memory. The HTTP service uses
// it to hand the text back to the client.
type BufferWriter struct {
	mu   sync.Mutex
	text string
}

// WriteText implements domain.ClipboardWriter.
func (b *BufferWriter) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	b.text = text
	b.mu.Unlock()
	return nil
}

// Text returns the last written text.
func (b *BufferWriter) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}
