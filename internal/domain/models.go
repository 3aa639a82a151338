package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	"math"
	"strings"
	"time"
)

// PayloadKind discriminates the two kinds of input the pipeline accepts.
type PayloadKind string

const (
	PayloadImage    PayloadKind = "image"
	PayloadDocument PayloadKind = "document"
)

// MediaTypePDF is the only document media type accepted.
const MediaTypePDF = "application/pdf"

// Payload is the normalized in-memory representation of an acquired input.
// It is immutable once created.
type Payload struct {
	Kind      PayloadKind
	MediaType string
	Name      string
	data      []byte
}

// NewPayload copies data so later mutation by the caller cannot leak in.
func NewPayload(kind PayloadKind, mediaType, name string, data []byte) *Payload {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Payload{
		Kind:      kind,
		MediaType: mediaType,
		Name:      name,
		data:      buf,
	}
}

// Bytes returns a copy of the payload data.
func (p *Payload) Bytes() []byte {
	buf := make([]byte, len(p.data))
	copy(buf, p.data)
	return buf
}

// Size returns the payload length in bytes.
func (p *Payload) Size() int {
	return len(p.data)
}

// Digest returns the hex sha256 of the payload data.
func (p *Payload) Digest() string {
	sum := sha256.Sum256(p.data)
	return hex.EncodeToString(sum[:])
}

// PageResult is the recognized text of one document page (1-based).
type PageResult struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// PageSeparator follows every page's text in the accumulated document text.
const PageSeparator = "\n\n"

// JoinPages concatenates page results in slice order, each followed by
// PageSeparator. Empty pages still contribute their separator.
func JoinPages(pages []PageResult) string {
	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString(p.Text)
		sb.WriteString(PageSeparator)
	}
	return sb.String()
}

// AllPagesEmpty reports whether no page produced any text.
func AllPagesEmpty(pages []PageResult) bool {
	for _, p := range pages {
		if p.Text != "" {
			return false
		}
	}
	return true
}

// Region is a rectangle in image pixel coordinates, origin top-left.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Rect converts the region to integer pixel bounds.
func (r Region) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)),
	)
}

// RegionFromRect is the inverse of Region.Rect.
func RegionFromRect(rect image.Rectangle) Region {
	return Region{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// Preview is what the preview area currently shows.
type Preview struct {
	Kind      PayloadKind `json:"kind"`
	MediaType string      `json:"media_type"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	PageCount int         `json:"page_count,omitempty"`
	Data      []byte      `json:"-"`
}

// EventType represents the type of stream event
type EventType string

const (
	EventStart          EventType = "start"
	EventPreview        EventType = "preview"
	EventPageProcessing EventType = "page_processing"
	EventOCRProgress    EventType = "ocr_progress"
	EventPageComplete   EventType = "page_complete"
	EventError          EventType = "error"
	EventComplete       EventType = "complete"
	EventSuperseded     EventType = "superseded"
)

// StreamEvent represents an event emitted during processing
type StreamEvent struct {
	SessionID  string      `json:"session_id"`
	Type       EventType   `json:"type"`
	PageNumber int         `json:"page_number,omitempty"`
	TotalPages int         `json:"total_pages,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// ProgressUpdate is reported by a Recognizer while it works.
type ProgressUpdate struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}

// SessionStatus is the terminal state of an extraction session.
type SessionStatus string

const (
	SessionRunning    SessionStatus = "running"
	SessionCompleted  SessionStatus = "completed"
	SessionFailed     SessionStatus = "failed"
	SessionSuperseded SessionStatus = "superseded"
)

// SessionRecord summarizes one finished extraction session.
type SessionRecord struct {
	ID         string        `json:"id"`
	Kind       PayloadKind   `json:"kind"`
	MediaType  string        `json:"media_type"`
	Name       string        `json:"name"`
	Digest     string        `json:"digest"`
	Language   string        `json:"language"`
	PageCount  int           `json:"page_count"`
	Status     SessionStatus `json:"status"`
	TextLength int           `json:"text_length"`
	Cached     bool          `json:"cached"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}
