package extract

import (
	"context"
	"sync"
	"time"

	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/observability"
)

// Session is one extraction run, from acquisition to final text. A later
// acquisition supersedes it.
type Session struct {
	ID         string
	Generation uint64
	Kind       domain.PayloadKind
	Language   string
	StartedAt  time.Time

	payload *domain.Payload
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	log     *observability.Logger

	mu     sync.Mutex
	status domain.SessionStatus
	text   string
}

// Done is closed once the session has finished or been superseded.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session finishes or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result returns the final display text and status. Before the session
// finishes the status is running.
func (s *Session) Result() (string, domain.SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, s.status
}

func (s *Session) setResult(status domain.SessionStatus, text string) {
	s.mu.Lock()
	s.status = status
	s.text = text
	s.mu.Unlock()
}

// Display is a snapshot of the shared status/result area.
type Display struct {
	SessionID  string               `json:"session_id,omitempty"`
	Generation uint64               `json:"generation"`
	Kind       domain.PayloadKind   `json:"kind,omitempty"`
	Status     domain.SessionStatus `json:"status,omitempty"`
	Text       string               `json:"text"`
	Page       int                  `json:"page,omitempty"`
	TotalPages int                  `json:"total_pages,omitempty"`
	CropActive bool                 `json:"crop_active"`
	CropLabel  string               `json:"crop_label"`
}

// CropState is returned by the crop operations.
type CropState struct {
	Active    bool           `json:"active"`
	Label     string         `json:"label"`
	Message   string         `json:"message,omitempty"`
	Selection *domain.Region `json:"selection,omitempty"`
	Bounds    *domain.Region `json:"bounds,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
}

// outcome is what a session run produced.
type outcome struct {
	status domain.SessionStatus
	text   string
	pages  int
	cached bool
	err    error
}

func superseded() outcome {
	return outcome{status: domain.SessionSuperseded}
}
