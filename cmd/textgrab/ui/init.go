// Package ui provides terminal output for the textgrab CLI.
package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	verboseFlag bool
	quietFlag   bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// InitUI applies color, verbosity and quiet settings. Quiet suppresses
// everything but errors, for machine-readable output.
func InitUI(noColor, verbose, quiet bool) {
	verboseFlag = verbose
	quietFlag = quiet

	if noColor {
		color.NoColor = true
	}
}

// SetOutput redirects standard and error output.
func SetOutput(out, errOut io.Writer) {
	stdout = out
	stderr = errOut
	color.Output = out
	color.Error = errOut
}

// Quiet reports whether decorative output is suppressed.
func Quiet() bool { return quietFlag }

// Stdout returns the writer used for results.
func Stdout() io.Writer { return stdout }
