// Package input normalizes the three input origins (file picker, drop and
// extension-pushed data URLs) into a domain.Payload.
package input

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/textgrab/internal/domain"
)

// ErrIgnored marks input whose media type is neither an image nor a PDF.
// Callers drop such input without surfacing an error to the user.
var ErrIgnored = errors.New("input ignored: unsupported media type")

// ErrTooLarge is returned when input exceeds the configured size limit.
var ErrTooLarge = errors.New("input exceeds maximum size")

// Classify maps a declared media type to a payload kind.
func Classify(mediaType string) (domain.PayloadKind, bool) {
	mt := normalizeMediaType(mediaType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return domain.PayloadImage, true
	case mt == domain.MediaTypePDF:
		return domain.PayloadDocument, true
	default:
		return "", false
	}
}

// Acquirer builds payloads subject to a size limit.
type Acquirer struct {
	maxBytes int64
}

// NewAcquirer creates an Acquirer. A non-positive maxBytes disables the limit.
func NewAcquirer(maxBytes int64) *Acquirer {
	return &Acquirer{maxBytes: maxBytes}
}

// FromReader reads a picked or dropped file with its declared media type.
func (a *Acquirer) FromReader(name, mediaType string, r io.Reader) (*domain.Payload, error) {
	kind, ok := Classify(mediaType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrIgnored, mediaType)
	}

	limited := r
	if a.maxBytes > 0 {
		limited = io.LimitReader(r, a.maxBytes+1)
	}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("read %s", name), err)
	}
	if err := a.checkSize(len(data)); err != nil {
		return nil, err
	}

	return domain.NewPayload(kind, normalizeMediaType(mediaType), name, data), nil
}

// FromFile reads a file from disk. An empty mediaType is derived from the
// extension, then from the content.
func (a *Acquirer) FromFile(path, mediaType string) (*domain.Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	if mediaType == "" {
		mediaType, err = detectMediaType(path, f)
		if err != nil {
			return nil, err
		}
	}

	return a.FromReader(filepath.Base(path), mediaType, f)
}

// FromDataURL accepts a data URL pushed by the extension. Only image data
// URLs are accepted.
func (a *Acquirer) FromDataURL(raw string) (*domain.Payload, error) {
	du, err := ParseDataURL(raw)
	if err != nil {
		return nil, domain.ValidationError("invalid data URL", err)
	}
	if kind, ok := Classify(du.MediaType); !ok || kind != domain.PayloadImage {
		return nil, fmt.Errorf("%w: %q", ErrIgnored, du.MediaType)
	}
	if err := a.checkSize(len(du.Data)); err != nil {
		return nil, err
	}
	return domain.NewPayload(domain.PayloadImage, du.MediaType, "extension-image", du.Data), nil
}

func (a *Acquirer) checkSize(n int) error {
	if a.maxBytes > 0 && int64(n) > a.maxBytes {
		return domain.ValidationError(fmt.Sprintf("input larger than %d bytes", a.maxBytes), ErrTooLarge)
	}
	return nil
}

func detectMediaType(path string, f *os.File) (string, error) {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); mt != "" {
		return mt, nil
	}

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return "", domain.IOError(fmt.Sprintf("read %s", path), err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", domain.IOError(fmt.Sprintf("rewind %s", path), err)
	}
	return http.DetectContentType(head[:n]), nil
}

// normalizeMediaType strips parameters and lowercases.
func normalizeMediaType(mediaType string) string {
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
