package ui

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	var out bytes.Buffer
	SetOutput(&out, &bytes.Buffer{})
	defer SetOutput(stdoutDefault(), stderrDefault())

	Table([]string{"ID", "Status"}, [][]string{{"abc", "completed"}})

	assert.Equal(t, "ID   Status\n--   ------\nabc  completed\n", out.String())
}

func TestQuietSuppressesDecoration(t *testing.T) {
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	InitUI(true, false, true)
	defer func() {
		InitUI(true, false, false)
		SetOutput(stdoutDefault(), stderrDefault())
	}()

	assert.True(t, Quiet())
	Success("done")
	Info("working")
	Error("broken")

	assert.Empty(t, out.String())
	assert.Equal(t, "✗ broken\n", errOut.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "5s", FormatDuration(5*time.Second))
	assert.Equal(t, "2m 3s", FormatDuration(123*time.Second))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}

func stdoutDefault() io.Writer { return os.Stdout }
func stderrDefault() io.Writer { return os.Stderr }
