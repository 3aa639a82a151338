package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spherical/textgrab/cmd/textgrab/ui"
	"github.com/spherical/textgrab/internal/app"
	"github.com/spherical/textgrab/internal/clipboard"
	"github.com/spherical/textgrab/internal/crop"
	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/extract"
	"github.com/spherical/textgrab/internal/input"
)

var errInterrupted = errors.New("extraction was interrupted")

// newApp wires the pipeline for a CLI run. The system clipboard is used for
// --copy.
func newApp(ctx context.Context, language string) (*app.App, error) {
	return app.New(ctx, cfg, logger, app.Options{
		Clipboard: clipboard.SystemWriter{},
		Language:  language,
	})
}

// parseRegion parses "x,y,w,h" in image pixels.
func parseRegion(s string) (*domain.Region, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, domain.ValidationError(fmt.Sprintf("region %q must be x,y,width,height", s), nil)
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, domain.ValidationError(fmt.Sprintf("region %q", s), err)
		}
		vals[i] = v
	}
	r := &domain.Region{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if r.IsEmpty() {
		return nil, domain.ValidationError("region width and height must be positive", nil)
	}
	return r, nil
}

// cropPayload cuts region out of an image payload.
func cropPayload(p *domain.Payload, region *domain.Region) (*domain.Payload, error) {
	if region == nil {
		return p, nil
	}
	if p.Kind != domain.PayloadImage {
		return nil, domain.ValidationError(domain.MsgCropNeedsImage, nil)
	}
	cs, err := crop.Attach(p)
	if err != nil {
		return nil, err
	}
	defer cs.Destroy()

	cs.SetSelection(*region)
	data, err := cs.CroppedPNG()
	if err != nil {
		return nil, domain.ValidationError("region does not overlap the image", err)
	}
	return domain.NewPayload(domain.PayloadImage, "image/png", p.Name+"#crop", data), nil
}

// defaultOutputPath derives <name>.txt next to the input.
func defaultOutputPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(filepath.Dir(path), base+".txt")
}

// runResult is the outcome of one extraction.
type runResult struct {
	SessionID string               `json:"session_id"`
	Name      string               `json:"name"`
	Kind      domain.PayloadKind   `json:"kind"`
	Status    domain.SessionStatus `json:"status"`
	Pages     int                  `json:"pages,omitempty"`
	Text      string               `json:"text"`
	Duration  time.Duration        `json:"duration_ns"`
	Copy      *clipboard.Result    `json:"copy,omitempty"`
}

// runExtraction accepts p, renders progress from the event stream and waits
// for the final text.
func runExtraction(ctx context.Context, ctrl *extract.Controller, p *domain.Payload, showProgress bool) (*runResult, error) {
	events, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	start := time.Now()
	sess, err := ctrl.Accept(ctx, p)
	if err != nil {
		return nil, err
	}

	var progress progressView = noProgress{}
	if showProgress {
		progress = newProgressView(p.Kind)
	}

	pages := 0
	for done := false; !done; {
		select {
		case ev := <-events:
			if ev.SessionID != sess.ID {
				continue
			}
			progress.Handle(ev)
			if ev.Type == domain.EventComplete {
				pages = ev.TotalPages
			}
		case <-sess.Done():
			done = true
		case <-ctx.Done():
			ctrl.Close()
			progress.Close(false)
			return nil, ctx.Err()
		}
	}
	// Drain what was emitted before Done closed.
	for drained := false; !drained; {
		select {
		case ev := <-events:
			if ev.SessionID == sess.ID {
				progress.Handle(ev)
				if ev.Type == domain.EventComplete {
					pages = ev.TotalPages
				}
			}
		default:
			drained = true
		}
	}

	text, status := sess.Result()
	progress.Close(status == domain.SessionCompleted)

	return &runResult{
		SessionID: sess.ID,
		Name:      p.Name,
		Kind:      p.Kind,
		Status:    status,
		Pages:     pages,
		Text:      text,
		Duration:  time.Since(start),
	}, nil
}

// writeResult prints or saves the extracted text.
func writeResult(res *runResult, outputPath string) error {
	if outputJSON {
		return writeJSON(res)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(res.Text), 0o644); err != nil {
			return domain.IOError("write output file", err)
		}
		ui.Success("Text saved to %s", outputPath)
		return nil
	}

	fmt.Fprint(ui.Stdout(), res.Text)
	if !strings.HasSuffix(res.Text, "\n") {
		fmt.Fprintln(ui.Stdout())
	}
	return nil
}

// describeAcquireError turns acquisition errors into CLI errors. Ignored
// media types have no message in the pipeline, but a CLI run that does
// nothing still has to say so.
func describeAcquireError(name string, err error) error {
	if errors.Is(err, input.ErrIgnored) {
		logger.Debug().Str("name", name).Msg("Ignoring unsupported input")
		return fmt.Errorf("%s: not an image or PDF", name)
	}
	return err
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(ui.Stdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
