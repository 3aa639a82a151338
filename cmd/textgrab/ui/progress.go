package ui

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Spinner wraps a spinner for indeterminate progress.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = stderr
	return &Spinner{spinner: s}
}

// Start starts the spinner unless output is quiet.
func (s *Spinner) Start() {
	if quietFlag {
		return
	}
	s.spinner.Start()
}

// Stop stops the spinner.
func (s *Spinner) Stop() {
	s.spinner.Stop()
}

// UpdateMessage updates the spinner's message.
func (s *Spinner) UpdateMessage(message string) {
	s.spinner.Lock()
	s.spinner.Suffix = " " + message
	s.spinner.Unlock()
}

// ProgressBar is a single progress bar over a known number of items.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a progress bar with the given total and description.
func NewProgressBar(total int64, description string) *ProgressBar {
	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!quietFlag),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Add advances the bar.
func (p *ProgressBar) Add(n int) {
	_ = p.bar.Add(n)
}

// Describe replaces the bar description.
func (p *ProgressBar) Describe(description string) {
	p.bar.Describe(description)
}

// Finish completes the bar.
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

// PageTracker shows two bars while a document is recognized: pages done and
// recognition progress of the current page.
type PageTracker struct {
	progress *mpb.Progress
	pages    *mpb.Bar
	ocr      *mpb.Bar
}

// NewPageTracker creates a tracker for total pages.
func NewPageTracker(total int) *PageTracker {
	opts := []mpb.ContainerOption{mpb.WithWidth(48), mpb.WithOutput(stderr)}
	if quietFlag {
		opts = append(opts, mpb.WithOutput(nil))
	}
	p := mpb.New(opts...)

	pages := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Pages", decor.WC{W: 6, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 8}), " done"),
		),
	)
	ocr := p.AddBar(100,
		mpb.PrependDecorators(
			decor.Name("OCR", decor.WC{W: 6, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(decor.Percentage(decor.WC{W: 5})),
		mpb.BarRemoveOnComplete(),
	)

	return &PageTracker{progress: p, pages: pages, ocr: ocr}
}

// StartPage resets the recognition bar for a new page.
func (t *PageTracker) StartPage() {
	t.ocr.SetCurrent(0)
}

// Recognition sets the current page's recognition progress in [0,1]. The
// bar is held below its total so it stays live across pages.
func (t *PageTracker) Recognition(progress float64) {
	cur := int64(progress * 100)
	if cur > 99 {
		cur = 99
	}
	t.ocr.SetCurrent(cur)
}

// PageDone advances the page counter.
func (t *PageTracker) PageDone() {
	t.pages.Increment()
}

// Close completes or aborts the bars and waits for rendering to finish.
func (t *PageTracker) Close(success bool) {
	if success {
		t.pages.SetTotal(-1, true)
		t.ocr.SetTotal(-1, true)
	} else {
		t.pages.Abort(false)
		t.ocr.Abort(true)
	}
	t.progress.Wait()
}
