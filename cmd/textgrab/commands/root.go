// Package commands implements the textgrab CLI.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical/textgrab/cmd/textgrab/ui"
	"github.com/spherical/textgrab/internal/config"
	"github.com/spherical/textgrab/internal/observability"
)

var version = "0.1.0"

var (
	cfgFile    string
	verbose    bool
	noColor    bool
	outputJSON bool

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "textgrab",
	Short: "Extract text from images and PDF documents",
	Long: `textgrab runs OCR over images and PDF documents.

Images are recognized in one pass. PDF pages are rendered and recognized one
at a time, in order, and joined with blank lines.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := cfg.Observability.LogLevel
		if verbose {
			level = "debug"
		} else if level == "info" {
			level = "warn"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      "console",
			Output:      os.Stderr,
			ServiceName: "textgrab-cli",
		})

		ui.InitUI(noColor, verbose, outputJSON)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
