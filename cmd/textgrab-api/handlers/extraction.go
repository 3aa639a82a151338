package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/spherical/textgrab/internal/clipboard"
	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/extract"
	"github.com/spherical/textgrab/internal/input"
	"github.com/spherical/textgrab/internal/observability"
)

// multipartOverhead allows for form framing around the file part.
const multipartOverhead = 1 << 20

// ExtractionHandler serves input acquisition, the display and clipboard
// export.
type ExtractionHandler struct {
	logger   *observability.Logger
	ctrl     *extract.Controller
	acq      *input.Acquirer
	maxBytes int64
}

// NewExtractionHandler creates a new extraction handler.
func NewExtractionHandler(logger *observability.Logger, ctrl *extract.Controller, acq *input.Acquirer, maxBytes int64) *ExtractionHandler {
	return &ExtractionHandler{
		logger:   logger,
		ctrl:     ctrl,
		acq:      acq,
		maxBytes: maxBytes,
	}
}

// AcceptedDTO is returned when an input starts a session.
type AcceptedDTO struct {
	SessionID  string             `json:"session_id"`
	Generation uint64             `json:"generation"`
	Kind       domain.PayloadKind `json:"kind"`
	Name       string             `json:"name"`
	Status     string             `json:"status"`
}

// CopyRequestDTO is the body of POST /copy.
type CopyRequestDTO struct {
	Scope     string `json:"scope"`
	Selection string `json:"selection"`
}

// UploadFile handles POST /files with a multipart "file" field.
func (h *ExtractionHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required", err.Error())
		return
	}
	defer file.Close()

	p, err := h.acq.FromReader(header.Filename, header.Header.Get("Content-Type"), file)
	h.accept(w, r, p, err)
}

// FromExtension handles GET /extension?imageData=<data URL>.
func (h *ExtractionHandler) FromExtension(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("imageData")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "imageData is required", "")
		return
	}
	p, err := h.acq.FromDataURL(raw)
	h.accept(w, r, p, err)
}

// Message handles POST /messages with {"action":"uploadImage","imageData":...}.
// Messages with other actions are acknowledged and dropped.
func (h *ExtractionHandler) Message(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.dataURLLimit())
	msg, err := decodeMessage(body)
	if err != nil {
		writeDomainError(w, "invalid message", err)
		return
	}

	p, err := h.acq.FromMessage(msg)
	if errors.Is(err, input.ErrIgnored) {
		h.logger.Debug().Str("action", msg.Action).Msg("Ignoring message")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.accept(w, r, p, err)
}

func (h *ExtractionHandler) accept(w http.ResponseWriter, r *http.Request, p *domain.Payload, err error) {
	if errors.Is(err, input.ErrIgnored) {
		h.logger.WithContext(r.Context()).Debug().Err(err).Msg("Ignoring unsupported input")
		writeError(w, http.StatusUnsupportedMediaType, "unsupported media type", "")
		return
	}
	if err != nil {
		writeDomainError(w, "could not read input", err)
		return
	}

	sess, err := h.ctrl.Accept(context.WithoutCancel(r.Context()), p)
	if err != nil {
		writeDomainError(w, "could not start extraction", err)
		return
	}

	writeJSON(w, http.StatusAccepted, AcceptedDTO{
		SessionID:  sess.ID,
		Generation: sess.Generation,
		Kind:       sess.Kind,
		Name:       p.Name,
		Status:     string(domain.SessionRunning),
	})
}

// Display handles GET /display.
func (h *ExtractionHandler) Display(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Display())
}

// Preview handles GET /preview, returning the preview image bytes.
func (h *ExtractionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	prev := h.ctrl.Preview()
	if prev == nil {
		writeError(w, http.StatusNotFound, "no preview available", "")
		return
	}

	w.Header().Set("X-Preview-Kind", string(prev.Kind))
	w.Header().Set("X-Preview-Width", strconv.Itoa(prev.Width))
	w.Header().Set("X-Preview-Height", strconv.Itoa(prev.Height))
	if prev.PageCount > 0 {
		w.Header().Set("X-Page-Count", strconv.Itoa(prev.PageCount))
	}
	if len(prev.Data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", prev.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(prev.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(prev.Data)
}

// Copy handles POST /copy.
func (h *ExtractionHandler) Copy(w http.ResponseWriter, r *http.Request) {
	var req CopyRequestDTO
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	scope, err := clipboard.ParseScope(req.Scope)
	if err != nil {
		writeDomainError(w, "invalid scope", err)
		return
	}

	writeJSON(w, http.StatusOK, h.ctrl.Copy(r.Context(), scope, req.Selection))
}

// History handles GET /history?limit=N.
func (h *ExtractionHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", "")
			return
		}
		limit = n
	}

	records, err := h.ctrl.History(r.Context(), limit)
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("History query failed")
		writeError(w, http.StatusInternalServerError, "history query failed", err.Error())
		return
	}
	if records == nil {
		records = []domain.SessionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": records})
}

func (h *ExtractionHandler) dataURLLimit() int64 {
	if h.maxBytes <= 0 {
		return 1 << 30
	}
	// base64 expands by 4/3.
	return h.maxBytes*4/3 + multipartOverhead
}
