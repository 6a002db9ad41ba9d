package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown for the terminal
// using glamour. The style follows the terminal background; summaries
// carry tables, so wrapping stays wide.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		// Surface the failure at render time; callers fall back to
		// printing the raw markdown.
		return func(string) (string, error) { return "", err }
	}
	return r.Render
}
