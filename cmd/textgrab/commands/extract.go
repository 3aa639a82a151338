package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/textgrab/cmd/textgrab/ui"
	"github.com/spherical/textgrab/internal/clipboard"
	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/extract"
)

var (
	extractLanguage string
	extractRegion   string
	extractCopy     bool
	extractOutput   string
	extractMedia    string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract text from an image or PDF file",
	Long: `Extract text from an image or PDF file.

The media type is taken from --media-type, then the file extension, then the
file content. Use --region to recognize only part of an image.`,
	Example: `  textgrab extract scan.png
  textgrab extract --lang deu+eng brochure.pdf -o brochure.txt
  textgrab extract --region 40,60,300,120 --copy receipt.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractLanguage, "lang", "l", "", "OCR language, e.g. eng or deu+eng (default from config)")
	extractCmd.Flags().StringVarP(&extractRegion, "region", "r", "", "image region to recognize as x,y,width,height")
	extractCmd.Flags().BoolVar(&extractCopy, "copy", false, "copy the result to the system clipboard")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "write text to this file instead of stdout")
	extractCmd.Flags().StringVar(&extractMedia, "media-type", "", "declared media type (default: detect)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	region, err := parseRegion(extractRegion)
	if err != nil {
		return err
	}

	path := args[0]
	a, err := newApp(ctx, extractLanguage)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.Acquirer.FromFile(path, extractMedia)
	if err != nil {
		return describeAcquireError(path, err)
	}
	p, err = cropPayload(p, region)
	if err != nil {
		return err
	}

	return extractAndReport(ctx, a.Controller, p, extractOutput, extractCopy)
}

// extractAndReport runs one payload and reports it the same way for every
// input origin.
func extractAndReport(ctx context.Context, ctrl *extract.Controller, p *domain.Payload, outputPath string, copyResult bool) error {
	ui.Section("Extracting " + p.Name)
	ui.KeyValue("Type", p.MediaType)

	res, err := runExtraction(ctx, ctrl, p, !ui.Quiet())
	if err != nil {
		return err
	}

	if res.Status == domain.SessionCompleted && copyResult {
		out := ctrl.Copy(ctx, clipboard.ScopeAll, "")
		res.Copy = &out
		switch {
		case out.Copied:
			ui.Success("%s", out.Message)
		case out.Message != "":
			ui.Warning("%s", out.Message)
		default:
			ui.Warning("Could not copy to clipboard")
		}
	}

	if outputJSON || res.Status == domain.SessionCompleted {
		if err := writeResult(res, outputPath); err != nil {
			return err
		}
	}

	switch res.Status {
	case domain.SessionCompleted:
		ui.Info("Finished in %s", ui.FormatDuration(res.Duration))
		return nil
	case domain.SessionFailed:
		return errors.New(res.Text)
	default:
		return errInterrupted
	}
}
