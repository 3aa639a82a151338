package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/textgrab/cmd/textgrab/ui"
	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/input"
)

var (
	batchOutputDir string
	batchLanguage  string
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Extract text from many files into .txt files",
	Long: `Extract text from each file in turn and write <name>.txt next to it,
or into --output-dir. Files that are neither images nor PDFs are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutputDir, "output-dir", "d", "", "directory for .txt files (default: next to each input)")
	batchCmd.Flags().StringVarP(&batchLanguage, "lang", "l", "", "OCR language (default from config)")
	rootCmd.AddCommand(batchCmd)
}

type batchSummary struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if batchOutputDir != "" {
		if err := os.MkdirAll(batchOutputDir, 0o755); err != nil {
			return domain.IOError("create output directory", err)
		}
	}

	a, err := newApp(ctx, batchLanguage)
	if err != nil {
		return err
	}
	defer a.Close()

	bar := ui.NewProgressBar(int64(len(args)), "Extracting")
	var summary batchSummary

	for _, path := range args {
		bar.Describe(ui.Truncate(filepath.Base(path), 24))

		p, err := a.Acquirer.FromFile(path, "")
		if errors.Is(err, input.ErrIgnored) {
			logger.Debug().Str("path", path).Msg("Skipping unsupported file")
			summary.Skipped++
			bar.Add(1)
			continue
		}
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to read file")
			summary.Failed++
			bar.Add(1)
			continue
		}

		res, err := runExtraction(ctx, a.Controller, p, false)
		if err != nil {
			bar.Finish()
			return err
		}
		if res.Status != domain.SessionCompleted {
			logger.Warn().Str("path", path).Str("status", string(res.Status)).Msg(res.Text)
			summary.Failed++
			bar.Add(1)
			continue
		}

		out := batchOutputPath(path, batchOutputDir)
		if err := os.WriteFile(out, []byte(res.Text), 0o644); err != nil {
			return domain.IOError("write "+out, err)
		}
		summary.Completed++
		bar.Add(1)
	}
	bar.Finish()

	if outputJSON {
		return writeJSON(summary)
	}
	ui.Success("%d completed, %d failed, %d skipped", summary.Completed, summary.Failed, summary.Skipped)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, len(args))
	}
	return nil
}

func batchOutputPath(path, dir string) string {
	out := defaultOutputPath(path)
	if dir == "" {
		return out
	}
	return filepath.Join(dir, filepath.Base(out))
}
