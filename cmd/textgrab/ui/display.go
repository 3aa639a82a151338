package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgBlue)
	headerColor  = color.New(color.FgCyan, color.Bold)
)

// Success displays a success message.
func Success(format string, args ...interface{}) {
	if quietFlag {
		return
	}
	successColor.Fprintf(stdout, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error displays an error message to stderr.
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(stderr, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...interface{}) {
	if quietFlag {
		return
	}
	warningColor.Fprintf(stderr, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info displays an informational message.
func Info(format string, args ...interface{}) {
	if quietFlag {
		return
	}
	infoColor.Fprintf(stderr, "→ %s\n", fmt.Sprintf(format, args...))
}

// Debug displays a message only in verbose mode.
func Debug(format string, args ...interface{}) {
	if !verboseFlag || quietFlag {
		return
	}
	fmt.Fprintf(stderr, "  %s\n", fmt.Sprintf(format, args...))
}

// Section prints a section header.
func Section(title string) {
	if quietFlag {
		return
	}
	headerColor.Fprintf(stderr, "\n%s\n", title)
	fmt.Fprintln(stderr, strings.Repeat("─", len([]rune(title))))
}

// Table displays data in a formatted table on stdout.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))

	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
}

// KeyValue displays a key-value pair.
func KeyValue(key, value string) {
	if quietFlag {
		return
	}
	fmt.Fprintf(stderr, "  %s: %s\n", key, value)
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)

	minutes := d / time.Minute
	seconds := (d - minutes*time.Minute) / time.Second

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// Truncate shortens s to maxLen runes with an ellipsis.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
