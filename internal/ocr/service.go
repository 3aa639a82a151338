// Package ocr wraps a recognition backend with the defaults and progress
// reporting the extraction pipeline relies on.
package ocr

import (
	"context"
	"errors"
	"time"

	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/observability"
)

// Progress statuses reported around every backend call.
const (
	StatusRecognizing = "recognizing text"
	StatusDone        = "done"
)

// Options configures a Service.
type Options struct {
	// DefaultLanguage is used when a request carries none.
	DefaultLanguage string
	// Timeout bounds a single recognition. Zero disables it.
	Timeout time.Duration
}

// Service adds language defaults, timeouts and progress events on top of a
// backend Recognizer.
type Service struct {
	backend domain.Recognizer
	opts    Options
	logger  *observability.Logger
}

// NewService creates a recognition service.
func NewService(backend domain.Recognizer, opts Options, logger *observability.Logger) *Service {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "eng"
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		backend: backend,
		opts:    opts,
		logger:  logger.WithOperation("ocr"),
	}
}

// Recognize runs the backend once.
func (s *Service) Recognize(ctx context.Context, req domain.RecognizeRequest) (string, error) {
	if len(req.Image) == 0 {
		return "", domain.ValidationError("image is empty", nil)
	}
	if req.Language == "" {
		req.Language = s.opts.DefaultLanguage
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	progress := req.Progress
	report := func(u domain.ProgressUpdate) {
		s.logger.Debug().Str("status", u.Status).Float64("progress", u.Progress).Msg("OCR progress")
		if progress != nil {
			progress(u)
		}
	}
	req.Progress = report

	report(domain.ProgressUpdate{Status: StatusRecognizing, Progress: 0})
	start := time.Now()

	text, err := s.backend.Recognize(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.RecognitionError("recognition timed out", err)
		}
		if domain.IsType(err, domain.ErrorTypeRecognition) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", domain.RecognitionError("recognition failed", err)
	}

	report(domain.ProgressUpdate{Status: StatusDone, Progress: 1})
	s.logger.Debug().
		Str("language", req.Language).
		Int("chars", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Recognition finished")

	return text, nil
}
