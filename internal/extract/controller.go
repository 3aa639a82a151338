// Package extract orchestrates acquisition, preview, recognition and the
// shared result display.
package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spherical/textgrab/internal/cache"
	"github.com/spherical/textgrab/internal/clipboard"
	"github.com/spherical/textgrab/internal/crop"
	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/imaging"
	"github.com/spherical/textgrab/internal/observability"
	"github.com/spherical/textgrab/internal/preview"
)

// ErrNoCrop is returned by crop operations when no crop session is active.
var ErrNoCrop = errors.New("no active crop session")

// Options configures a Controller.
type Options struct {
	Language string
	// Scale is the document rasterization factor.
	Scale float64
	// EventBuffer is the channel size handed to subscribers.
	EventBuffer int
}

// Deps are the collaborators of a Controller. Cache and History are
// optional.
type Deps struct {
	Recognizer domain.Recognizer
	Loader     domain.DocumentLoader
	Previewer  *preview.Renderer
	Exporter   *clipboard.Exporter
	Cache      domain.ResultCache
	History    domain.HistoryStore
	Logger     *observability.Logger
}

// appState is everything the Controller owns. Guarded by Controller.mu.
type appState struct {
	generation uint64
	payload    *domain.Payload
	session    *Session
	crop       *crop.Session
	preview    *domain.Preview
	display    Display
}

// Controller is the extraction pipeline. All display writes are tagged with
// the generation of the session that produced them and dropped when stale.
type Controller struct {
	recognizer domain.Recognizer
	loader     domain.DocumentLoader
	previewer  *preview.Renderer
	exporter   *clipboard.Exporter
	cache      domain.ResultCache
	history    domain.HistoryStore
	logger     *observability.Logger
	opts       Options

	mu      sync.Mutex
	state   appState
	subs    map[int]chan domain.StreamEvent
	nextSub int
}

// NewController creates a controller.
func NewController(deps Deps, opts Options) *Controller {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.Scale <= 0 {
		opts.Scale = 1.5
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 100
	}
	logger := deps.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	previewer := deps.Previewer
	if previewer == nil {
		previewer = preview.NewRenderer(opts.Scale, 0)
	}
	exporter := deps.Exporter
	if exporter == nil {
		exporter = clipboard.NewExporter(&clipboard.BufferWriter{}, logger)
	}

	return &Controller{
		recognizer: deps.Recognizer,
		loader:     deps.Loader,
		previewer:  previewer,
		exporter:   exporter,
		cache:      deps.Cache,
		history:    deps.History,
		logger:     logger.WithOperation("extract"),
		opts:       opts,
		subs:       make(map[int]chan domain.StreamEvent),
	}
}

// Accept makes p the current payload and starts extracting it. Any running
// session is superseded and an active crop is discarded.
func (c *Controller) Accept(ctx context.Context, p *domain.Payload) (*Session, error) {
	if p == nil || p.Size() == 0 {
		return nil, domain.ValidationError("payload is empty", nil)
	}
	if p.Kind != domain.PayloadImage && p.Kind != domain.PayloadDocument {
		return nil, domain.ValidationError(fmt.Sprintf("unsupported payload kind %q", p.Kind), nil)
	}

	var prev *domain.Preview
	if p.Kind == domain.PayloadImage {
		var err error
		prev, err = c.previewer.Image(p)
		if err != nil {
			c.logger.Warn().Err(err).Str("name", p.Name).Msg("Image preview failed")
		}
	}

	c.mu.Lock()
	c.destroyCropLocked()
	c.state.payload = p
	c.state.preview = prev
	sess := c.startLocked(ctx, p)
	c.mu.Unlock()

	sess.log.Info().
		Str("kind", string(p.Kind)).
		Str("name", p.Name).
		Int("bytes", p.Size()).
		Msg("Accepted input")

	go c.run(sess)
	return sess, nil
}

// startLocked supersedes the current session and registers a new one for p.
func (c *Controller) startLocked(ctx context.Context, p *domain.Payload) *Session {
	if c.state.session != nil {
		c.state.session.cancel()
	}
	c.state.generation++

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess := &Session{
		ID:         uuid.NewString(),
		Generation: c.state.generation,
		Kind:       p.Kind,
		Language:   c.opts.Language,
		StartedAt:  time.Now(),
		payload:    p,
		ctx:        sctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		status:     domain.SessionRunning,
	}
	sess.log = c.logger.WithSession(sess.ID)
	c.state.session = sess

	working := domain.MsgExtractingImage
	if p.Kind == domain.PayloadDocument {
		working = domain.MsgExtractingPDF
	}
	c.state.display = Display{
		SessionID:  sess.ID,
		Generation: sess.Generation,
		Kind:       p.Kind,
		Status:     domain.SessionRunning,
		Text:       working,
	}
	return sess
}

func (c *Controller) run(sess *Session) {
	defer sess.cancel()

	c.emit(sess, domain.StreamEvent{
		Type:    domain.EventStart,
		Payload: fmt.Sprintf("Starting extraction of %s", sess.payload.Name),
	})

	var res outcome
	if sess.Kind == domain.PayloadDocument {
		res = c.runDocument(sess)
	} else {
		res = c.runImage(sess)
	}
	c.finish(sess, res)
}

// runImage is the single-shot path: one recognition, no retry.
func (c *Controller) runImage(sess *Session) outcome {
	key := cache.ResultKey(sess.payload.Digest(), sess.Language)
	if text, ok := c.cachedText(sess, key); ok {
		return imageOutcome(text, true)
	}

	text, err := c.recognizer.Recognize(sess.ctx, domain.RecognizeRequest{
		Image:    sess.payload.Bytes(),
		Language: sess.Language,
		Progress: c.progressFunc(sess, 0),
	})
	if !c.isCurrent(sess) {
		return superseded()
	}
	if err != nil {
		return outcome{status: domain.SessionFailed, text: domain.MsgImageFailed, err: err}
	}

	c.storeText(sess, key, text)
	return imageOutcome(text, false)
}

func imageOutcome(text string, cached bool) outcome {
	display := text
	if text == "" {
		display = domain.MsgNoTextInImage
	}
	return outcome{status: domain.SessionCompleted, text: display, cached: cached}
}

// runDocument renders and recognizes pages one at a time in ascending order.
func (c *Controller) runDocument(sess *Session) outcome {
	doc, err := c.loader.Load(sess.ctx, sess.payload.Bytes())
	if err != nil {
		if !c.isCurrent(sess) {
			return superseded()
		}
		return outcome{status: domain.SessionFailed, text: domain.MsgPDFFailed, err: err}
	}
	defer doc.Close()

	c.renderPreview(sess, doc)

	total := doc.PageCount()
	key := cache.ResultKey(sess.payload.Digest(), sess.Language)
	if text, ok := c.cachedText(sess, key); ok {
		return documentOutcome(text, total, true)
	}

	pages := make([]domain.PageResult, 0, total)
	for i := 1; i <= total; i++ {
		if !c.isCurrent(sess) {
			return superseded()
		}

		c.writeProgress(sess, i, total)
		c.emit(sess, domain.StreamEvent{
			Type:       domain.EventPageProcessing,
			PageNumber: i,
			TotalPages: total,
			Payload:    fmt.Sprintf("Processing page %d", i),
		})

		text, err := c.recognizePage(sess, doc, i)
		if err != nil {
			if !c.isCurrent(sess) {
				return superseded()
			}
			return outcome{
				status: domain.SessionFailed,
				text:   domain.MsgPDFFailed,
				pages:  total,
				err:    fmt.Errorf("page %d: %w", i, err),
			}
		}

		pages = append(pages, domain.PageResult{Page: i, Text: text})
		c.emit(sess, domain.StreamEvent{
			Type:       domain.EventPageComplete,
			PageNumber: i,
			TotalPages: total,
			Payload:    pages[len(pages)-1],
		})
	}

	if !c.isCurrent(sess) {
		return superseded()
	}

	joined := domain.JoinPages(pages)
	if domain.AllPagesEmpty(pages) {
		joined = ""
	}
	c.storeText(sess, key, joined)
	return documentOutcome(joined, total, false)
}

func documentOutcome(text string, pages int, cached bool) outcome {
	display := text
	if text == "" {
		display = domain.MsgNoTextInPDF
	}
	return outcome{status: domain.SessionCompleted, text: display, pages: pages, cached: cached}
}

func (c *Controller) recognizePage(sess *Session, doc domain.Document, number int) (string, error) {
	page, err := doc.Page(number)
	if err != nil {
		return "", err
	}
	if _, err := page.TextContent(); err != nil {
		return "", domain.ConversionError("Failed to read page text content", err)
	}

	w, h, err := page.ViewportSize(c.opts.Scale)
	if err != nil {
		return "", domain.ConversionError("Failed to size page", err)
	}
	img, err := page.Rasterize(c.opts.Scale)
	if err != nil {
		return "", domain.ConversionError("Failed to render page", err)
	}
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return "", domain.ConversionError("Failed to encode page", err)
	}

	sess.log.Debug().
		Int("page", number).
		Int("width", w).
		Int("height", h).
		Msg("Rendered page")

	return c.recognizer.Recognize(sess.ctx, domain.RecognizeRequest{
		Image:    data,
		Language: sess.Language,
		Progress: c.progressFunc(sess, number),
	})
}

func (c *Controller) renderPreview(sess *Session, doc domain.Document) {
	prev, err := c.previewer.Document(doc)
	if err != nil {
		sess.log.Warn().Err(err).Msg("Document preview failed")
		return
	}

	c.mu.Lock()
	stale := sess.Generation != c.state.generation
	if !stale {
		c.state.preview = prev
	}
	c.mu.Unlock()

	if !stale {
		c.emit(sess, domain.StreamEvent{
			Type:       domain.EventPreview,
			TotalPages: prev.PageCount,
			Payload:    prev,
		})
	}
}

func (c *Controller) writeProgress(sess *Session, page, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sess.Generation != c.state.generation {
		return
	}
	c.state.display.Text = fmt.Sprintf(domain.MsgPageProgressFormat, page, total)
	c.state.display.Page = page
	c.state.display.TotalPages = total
}

// finish publishes the outcome unless the session went stale, then records
// it.
func (c *Controller) finish(sess *Session, res outcome) {
	c.mu.Lock()
	current := sess.Generation == c.state.generation && sess.ctx.Err() == nil
	if !current {
		res.status = domain.SessionSuperseded
	}
	if res.status != domain.SessionSuperseded {
		c.state.display.Text = res.text
		c.state.display.Status = res.status
	}
	c.mu.Unlock()

	sess.setResult(res.status, res.text)
	log := sess.log

	switch res.status {
	case domain.SessionSuperseded:
		log.Info().Msg("Session superseded")
		c.emit(sess, domain.StreamEvent{Type: domain.EventSuperseded})
	case domain.SessionFailed:
		log.Error().Err(res.err).Str("kind", string(sess.Kind)).Msg("Extraction failed")
		c.emit(sess, domain.StreamEvent{Type: domain.EventError, Payload: res.err.Error()})
		c.emit(sess, domain.StreamEvent{Type: domain.EventComplete, TotalPages: res.pages, Payload: res.text})
	default:
		log.Info().
			Dur("duration", time.Since(sess.StartedAt)).
			Int("pages", res.pages).
			Bool("cached", res.cached).
			Msg("Extraction complete")
		c.emit(sess, domain.StreamEvent{Type: domain.EventComplete, TotalPages: res.pages, Payload: res.text})
	}

	c.record(sess, res)
	close(sess.done)
}

func (c *Controller) record(sess *Session, res outcome) {
	if c.history == nil {
		return
	}
	rec := domain.SessionRecord{
		ID:         sess.ID,
		Kind:       sess.Kind,
		MediaType:  sess.payload.MediaType,
		Name:       sess.payload.Name,
		Digest:     sess.payload.Digest(),
		Language:   sess.Language,
		PageCount:  res.pages,
		Status:     res.status,
		TextLength: len(res.text),
		Cached:     res.cached,
		StartedAt:  sess.StartedAt,
		FinishedAt: time.Now(),
	}
	if res.err != nil {
		rec.Error = res.err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.history.Record(ctx, rec); err != nil {
		sess.log.Warn().Err(err).Msg("Failed to record session")
	}
}

func (c *Controller) cachedText(sess *Session, key string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	text, ok, err := c.cache.GetText(sess.ctx, key)
	if err != nil {
		sess.log.Warn().Err(err).Str("key", key).Msg("Cache lookup failed")
		return "", false
	}
	return text, ok
}

func (c *Controller) storeText(sess *Session, key, text string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.PutText(sess.ctx, key, text); err != nil {
		sess.log.Warn().Err(err).Str("key", key).Msg("Cache store failed")
	}
}

func (c *Controller) progressFunc(sess *Session, page int) func(domain.ProgressUpdate) {
	return func(u domain.ProgressUpdate) {
		c.emit(sess, domain.StreamEvent{
			Type:       domain.EventOCRProgress,
			PageNumber: page,
			Payload:    u,
		})
	}
}

// isCurrent reports whether sess may still write to the display.
func (c *Controller) isCurrent(sess *Session) bool {
	if sess.ctx.Err() != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return sess.Generation == c.state.generation
}

// Current returns the latest session, or nil.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.session
}

// Display returns a snapshot of the status/result area.
func (c *Controller) Display() Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.state.display
	d.CropActive = c.state.crop != nil
	d.CropLabel = c.cropLabelLocked()
	return d
}

// Preview returns what the preview area shows, or nil.
func (c *Controller) Preview() *domain.Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.preview == nil {
		return nil
	}
	p := *c.state.preview
	return &p
}

// Copy exports the display text or the caller's selection.
func (c *Controller) Copy(ctx context.Context, scope clipboard.Scope, selection string) clipboard.Result {
	return c.exporter.Copy(ctx, scope, selection, c.Display().Text)
}

// History returns recent finished sessions.
func (c *Controller) History(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if c.history == nil {
		return []domain.SessionRecord{}, nil
	}
	return c.history.Recent(ctx, limit)
}

// Close supersedes the running session and waits for it to stop.
func (c *Controller) Close() {
	c.mu.Lock()
	sess := c.state.session
	c.destroyCropLocked()
	c.mu.Unlock()

	if sess != nil {
		sess.cancel()
		<-sess.done
	}
}
