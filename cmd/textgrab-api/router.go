package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical/textgrab/cmd/textgrab-api/handlers"
	"github.com/spherical/textgrab/cmd/textgrab-api/middleware"
	"github.com/spherical/textgrab/internal/app"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(a *app.App) http.Handler {
	cfg := a.Config
	logger := a.Logger

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"textgrab"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := a.Ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	extraction := handlers.NewExtractionHandler(logger, a.Controller, a.Acquirer, cfg.Limits.MaxUploadBytes)
	cropping := handlers.NewCropHandler(logger, a.Controller)
	events := handlers.NewEventsHandler(logger, a.Controller)

	requestTimeout := cfg.Server.ReadTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Event streams stay open, so they sit outside the timeout group.
		r.Get("/events", events.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(requestTimeout))

			r.Post("/files", extraction.UploadFile)
			r.Get("/extension", extraction.FromExtension)
			r.Post("/messages", extraction.Message)

			r.Get("/display", extraction.Display)
			r.Get("/preview", extraction.Preview)
			r.Post("/copy", extraction.Copy)
			r.Get("/history", extraction.History)

			r.Route("/crop", func(r chi.Router) {
				r.Get("/", cropping.Get)
				r.Post("/toggle", cropping.Toggle)
				r.Put("/selection", cropping.SetSelection)
				r.Delete("/", cropping.Cancel)
			})
		})
	})

	return r
}
