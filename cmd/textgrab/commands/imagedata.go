package commands

import (
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/input"
)

var (
	imageDataOutput string
	imageDataCopy   bool
	imageDataLang   string
)

var imageDataCmd = &cobra.Command{
	Use:   "image-data <data-url | ->",
	Short: "Extract text from a data URL image",
	Long: `Extract text from an image passed as a data URL, the way the browser
extension hands images over. Use "-" to read the data URL or a JSON message
{"action":"uploadImage","imageData":"data:..."} from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImageData,
}

func init() {
	imageDataCmd.Flags().StringVarP(&imageDataOutput, "output", "o", "", "write text to this file instead of stdout")
	imageDataCmd.Flags().BoolVar(&imageDataCopy, "copy", false, "copy the result to the system clipboard")
	imageDataCmd.Flags().StringVarP(&imageDataLang, "lang", "l", "", "OCR language (default from config)")
	rootCmd.AddCommand(imageDataCmd)
}

func runImageData(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	raw := args[0]
	if raw == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return domain.IOError("read stdin", err)
		}
		raw = strings.TrimSpace(string(data))
	}

	a, err := newApp(ctx, imageDataLang)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := payloadFromImageData(a.Acquirer, raw)
	if err != nil {
		return describeAcquireError("image data", err)
	}

	return extractAndReport(ctx, a.Controller, p, imageDataOutput, imageDataCopy)
}

// payloadFromImageData accepts a bare data URL or an inbound message.
func payloadFromImageData(acq *input.Acquirer, raw string) (*domain.Payload, error) {
	if strings.HasPrefix(raw, "{") {
		msg, err := input.DecodeMessage([]byte(raw))
		if err != nil {
			return nil, err
		}
		return acq.FromMessage(msg)
	}
	return acq.FromDataURL(raw)
}
