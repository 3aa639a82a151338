// Command textgrab extracts text from images and PDF documents.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/spherical/textgrab/cmd/textgrab/commands"
	"github.com/spherical/textgrab/cmd/textgrab/ui"
)

func main() {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	if err := commands.Execute(); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}
