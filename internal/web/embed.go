// Package web embeds the HTML templates for the chat page.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// PageData is what the chat page renders.
type PageData struct {
	Title      string
	Subheader  string
	Transcript string
	Input      string
	Busy       bool
}

// HasTranscript reports whether the transcript display should be shown.
func (p PageData) HasTranscript() bool {
	return p.Transcript != ""
}
