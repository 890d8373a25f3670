package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

// wordWrap is the terminal width used to render markdown.
const wordWrap = 100

// printMarkdown renders md for the terminal on stdout, or prints it as is
// with -plain.
func printMarkdown(md string) error {
	if *plain {
		_, err := io.WriteString(stdout, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return fmt.Errorf("cannot create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("cannot render markdown: %w", err)
	}
	_, err = io.WriteString(stdout, out)
	return err
}
