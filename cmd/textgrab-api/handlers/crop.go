package handlers

import (
	"errors"
	"net/http"

	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/extract"
	"github.com/spherical/textgrab/internal/observability"
)

// CropHandler serves region selection.
type CropHandler struct {
	logger *observability.Logger
	ctrl   *extract.Controller
}

// NewCropHandler creates a new crop handler.
func NewCropHandler(logger *observability.Logger, ctrl *extract.Controller) *CropHandler {
	return &CropHandler{logger: logger, ctrl: ctrl}
}

// ToggleRequestDTO is the optional body of POST /crop/toggle.
type ToggleRequestDTO struct {
	Selection *domain.Region `json:"selection,omitempty"`
}

// Get handles GET /crop.
func (h *CropHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Crop())
}

// Toggle handles POST /crop/toggle. It answers 202 when applying the crop
// started a session.
func (h *CropHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequestDTO
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	state, sess, err := h.ctrl.ToggleCrop(r.Context(), req.Selection)
	if err != nil {
		writeDomainError(w, "crop failed", err)
		return
	}

	status := http.StatusOK
	if sess != nil {
		status = http.StatusAccepted
	}
	writeJSON(w, status, state)
}

// SetSelection handles PUT /crop/selection.
func (h *CropHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var region domain.Region
	if err := decodeJSON(r, &region); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	state, err := h.ctrl.SetSelection(region)
	if errors.Is(err, extract.ErrNoCrop) {
		writeError(w, http.StatusConflict, "no active crop session", "")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Cancel handles DELETE /crop.
func (h *CropHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	state, err := h.ctrl.CancelCrop()
	if errors.Is(err, extract.ErrNoCrop) {
		writeError(w, http.StatusConflict, "no active crop session", "")
		return
	}
	writeJSON(w, http.StatusOK, state)
}
