// Package web renders the HTML surface of the gateway: the prompt form and
// generated results converted from markdown.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dzivkovi/serverless-app-gemini/internal/safety"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData feeds the index template. Exactly one of ResponseHTML and Error
// is set after a POST; both are empty on a plain GET.
type PageData struct {
	Prompt          string
	ModerationLevel string
	Levels          []string
	ResponseHTML    template.HTML
	Error           string
	SafetyInfo      []string
}

// Renderer converts generated markdown to HTML and renders the index page.
type Renderer struct {
	templates *template.Template
	markdown  goldmark.Markdown
}

// NewRenderer parses the embedded templates and configures the markdown
// converter. Raw HTML inside generated markdown is not passed through.
func NewRenderer() (*Renderer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{
		templates: templates,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// Markdown converts generated markdown into HTML for embedding in the page.
func (r *Renderer) Markdown(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderIndex writes the prompt page. Levels defaults to the four known
// moderation levels when unset.
func (r *Renderer) RenderIndex(w io.Writer, data PageData) error {
	if data.Levels == nil {
		data.Levels = levelNames()
	}
	if data.ModerationLevel == "" {
		data.ModerationLevel = string(safety.DefaultLevel)
	}
	return r.templates.ExecuteTemplate(w, "index.html", data)
}

func levelNames() []string {
	names := make([]string, 0, len(safety.Levels))
	for _, level := range safety.Levels {
		names = append(names, string(level))
	}
	return names
}
