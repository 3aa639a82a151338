// Package app wires the extraction pipeline from configuration. Both
// binaries start from here.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spherical/textgrab/internal/cache"
	"github.com/spherical/textgrab/internal/clipboard"
	"github.com/spherical/textgrab/internal/config"
	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/extract"
	"github.com/spherical/textgrab/internal/input"
	"github.com/spherical/textgrab/internal/observability"
	"github.com/spherical/textgrab/internal/ocr"
	"github.com/spherical/textgrab/internal/ocr/tesseract"
	"github.com/spherical/textgrab/internal/pdf"
	"github.com/spherical/textgrab/internal/preview"
	"github.com/spherical/textgrab/internal/storage"
)

// Options overrides pieces of the default wiring.
type Options struct {
	// Recognizer replaces the Tesseract engine.
	Recognizer domain.Recognizer
	// Clipboard replaces the in-memory clipboard writer.
	Clipboard domain.ClipboardWriter
	// Language overrides cfg.OCR.Language when set.
	Language string
}

// App holds the wired pipeline and the resources it owns.
type App struct {
	Config     *config.Config
	Logger     *observability.Logger
	Controller *extract.Controller
	Acquirer   *input.Acquirer

	cache   *cache.TextCache
	history *storage.HistoryRepository
}

// New builds an App. Cache and history failures are logged and the
// pipeline runs without them.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, domain.ConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = observability.Nop()
	}

	backend := opts.Recognizer
	if backend == nil {
		backend = tesseract.NewEngine(tesseract.Config{
			TessdataPrefix: cfg.OCR.TessdataPrefix,
			PageSegMode:    cfg.OCR.PageSegMode,
		})
	}
	recognizer := ocr.NewService(backend, ocr.Options{
		DefaultLanguage: cfg.OCR.Language,
		Timeout:         cfg.OCR.Timeout,
	}, logger)

	writer := opts.Clipboard
	if writer == nil {
		writer = &clipboard.BufferWriter{}
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Acquirer: input.NewAcquirer(cfg.Limits.MaxUploadBytes),
	}

	deps := extract.Deps{
		Recognizer: recognizer,
		Loader:     pdf.NewLoader(cfg.Limits.MaxUploadBytes),
		Previewer:  preview.NewRenderer(cfg.Render.Scale, cfg.Render.PreviewMaxWidth),
		Exporter:   clipboard.NewExporter(writer, logger),
		Logger:     logger,
	}

	textCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Warn().Err(err).Str("driver", cfg.Cache.Driver).Msg("Result cache unavailable")
	} else if textCache != nil {
		a.cache = textCache
		deps.Cache = textCache
	}

	history, err := storage.Open(ctx, cfg.History)
	if err != nil {
		logger.Warn().Err(err).Str("driver", cfg.History.Driver).Msg("History store unavailable")
	} else if history != nil {
		a.history = history
		deps.History = history
	}

	language := cfg.OCR.Language
	if opts.Language != "" {
		language = opts.Language
	}

	a.Controller = extract.NewController(deps, extract.Options{
		Language: language,
		Scale:    cfg.Render.Scale,
	})

	logger.Info().
		Str("language", language).
		Float64("scale", cfg.Render.Scale).
		Str("cache", cfg.Cache.Driver).
		Bool("cache_enabled", a.cache != nil).
		Str("history", cfg.History.Driver).
		Bool("history_enabled", a.history != nil).
		Msg("Pipeline ready")

	return a, nil
}

// Ready reports whether the optional stores are reachable.
func (a *App) Ready(ctx context.Context) error {
	if a.history != nil {
		if _, err := a.history.Recent(ctx, 1); err != nil {
			return fmt.Errorf("history store: %w", err)
		}
	}
	return nil
}

// Close stops the controller and releases stores.
func (a *App) Close() error {
	a.Controller.Close()

	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	return errors.Join(errs...)
}
