package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spherical/textgrab/internal/extract"
	"github.com/spherical/textgrab/internal/observability"
)

// keepAliveInterval is how often an idle event stream sends a comment.
const keepAliveInterval = 15 * time.Second

// EventsHandler streams pipeline events as server-sent events.
type EventsHandler struct {
	logger *observability.Logger
	ctrl   *extract.Controller
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(logger *observability.Logger, ctrl *extract.Controller) *EventsHandler {
	return &EventsHandler{logger: logger, ctrl: ctrl}
}

// Stream handles GET /events. The first event is a "display" snapshot.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	events, unsubscribe := h.ctrl.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "display", h.ctrl.Display()); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, string(ev.Type), ev); err != nil {
				h.logger.Debug().Err(err).Msg("Event stream closed")
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
