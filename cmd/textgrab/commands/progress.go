package commands

import (
	"fmt"

	"github.com/spherical/textgrab/cmd/textgrab/ui"
	"github.com/spherical/textgrab/internal/domain"
)

// progressView renders stream events for one session.
type progressView interface {
	Handle(ev domain.StreamEvent)
	Close(success bool)
}

type noProgress struct{}

func (noProgress) Handle(domain.StreamEvent) {}
func (noProgress) Close(bool)                {}

func newProgressView(kind domain.PayloadKind) progressView {
	if kind == domain.PayloadDocument {
		return &documentProgress{spinner: ui.NewSpinner(domain.MsgExtractingPDF)}
	}
	s := ui.NewSpinner(domain.MsgExtractingImage)
	s.Start()
	return &imageProgress{spinner: s}
}

// imageProgress shows a spinner for the single recognition.
type imageProgress struct {
	spinner *ui.Spinner
}

func (p *imageProgress) Handle(ev domain.StreamEvent) {
	if ev.Type != domain.EventOCRProgress {
		return
	}
	if u, ok := ev.Payload.(domain.ProgressUpdate); ok {
		p.spinner.UpdateMessage(fmt.Sprintf("%s %s (%.0f%%)", domain.MsgExtractingImage, u.Status, u.Progress*100))
	}
}

func (p *imageProgress) Close(bool) {
	p.spinner.Stop()
}

// documentProgress loads with a spinner and switches to page bars once the
// page count is known.
type documentProgress struct {
	spinner *ui.Spinner
	tracker *ui.PageTracker
	started bool
}

func (p *documentProgress) Handle(ev domain.StreamEvent) {
	switch ev.Type {
	case domain.EventStart:
		p.spinner.Start()
		p.started = true
	case domain.EventPreview:
		p.stopSpinner()
		if ev.TotalPages > 0 {
			p.tracker = ui.NewPageTracker(ev.TotalPages)
		}
	case domain.EventPageProcessing:
		if p.tracker != nil {
			p.tracker.StartPage()
		}
		ui.Debug(domain.MsgPageProgressFormat, ev.PageNumber, ev.TotalPages)
	case domain.EventOCRProgress:
		if u, ok := ev.Payload.(domain.ProgressUpdate); ok && p.tracker != nil {
			p.tracker.Recognition(u.Progress)
		}
	case domain.EventPageComplete:
		if p.tracker != nil {
			p.tracker.PageDone()
		}
	case domain.EventError:
		p.stopSpinner()
		ui.Debug("%v", ev.Payload)
	}
}

func (p *documentProgress) Close(success bool) {
	p.stopSpinner()
	if p.tracker != nil {
		p.tracker.Close(success)
		p.tracker = nil
	}
}

func (p *documentProgress) stopSpinner() {
	if p.started {
		p.spinner.Stop()
		p.started = false
	}
}
