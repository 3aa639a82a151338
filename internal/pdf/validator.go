package pdf

import (
	"bytes"
	"fmt"

	"github.com/spherical/textgrab/internal/domain"
)

// headerWindow is how far into the data the %PDF- marker may appear.
const headerWindow = 1024

// Validator provides input validation for PDF data
type Validator struct {
	maxBytes int64
}

// NewValidator creates a new validator instance. A non-positive maxBytes
// disables the size check.
func NewValidator(maxBytes int64) *Validator {
	return &Validator{maxBytes: maxBytes}
}

// ValidateData checks that data is non-empty, within limits and carries a
// PDF header.
func (v *Validator) ValidateData(data []byte) error {
	if len(data) == 0 {
		return domain.ValidationError("document is empty", nil)
	}

	if v.maxBytes > 0 && int64(len(data)) > v.maxBytes {
		return domain.ValidationError(fmt.Sprintf("document is %d bytes, limit is %d", len(data), v.maxBytes), nil)
	}

	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	if !bytes.Contains(window, []byte("%PDF-")) {
		return domain.ValidationError("data does not look like a PDF (missing %PDF- header)", nil)
	}

	return nil
}

// ValidateScale validates the rasterization scale
func (v *Validator) ValidateScale(scale float64) error {
	if scale <= 0 || scale > 8 {
		return domain.ValidationError(fmt.Sprintf("scale must be in (0, 8], got %v", scale), nil)
	}
	return nil
}
