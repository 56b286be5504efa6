// ABOUTME: Embedded HTML templates for the demo UI and snippet pages.
// ABOUTME: Markdown bodies are rendered to HTML with goldmark before templating.

package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/zack-dev-cm/mcp-server/internal/registry"
)

//go:embed templates/*.html
var templateFS embed.FS

// SnippetPage is the data for a rendered snippet at /s/{id}.
type SnippetPage struct {
	ID       string
	Markdown string
	Created  time.Time
}

// IndexPage is the data for the landing page.
type IndexPage struct {
	ServerID  string
	Welcome   string
	Tools     []registry.Tool
	Resources []registry.Resource
	Prompts   []registry.Prompt
}

// Renderer holds the parsed templates and a shared markdown engine.
type Renderer struct {
	templates *template.Template
	markdown  goldmark.Markdown
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{
		templates: tmpl,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}, nil
}

// RenderSnippet renders the snippet page, converting the stored markdown.
func (r *Renderer) RenderSnippet(w io.Writer, page SnippetPage) error {
	body, err := r.renderMarkdown(page.Markdown)
	if err != nil {
		return err
	}
	return r.templates.ExecuteTemplate(w, "snippet.html", struct {
		ID      string
		Body    template.HTML
		Created string
	}{
		ID:      page.ID,
		Body:    body,
		Created: page.Created.UTC().Format(time.RFC3339),
	})
}

// RenderIndex renders the landing page with the tool and resource listings.
func (r *Renderer) RenderIndex(w io.Writer, page IndexPage) error {
	welcome, err := r.renderMarkdown(page.Welcome)
	if err != nil {
		return err
	}
	return r.templates.ExecuteTemplate(w, "index.html", struct {
		ServerID  string
		Welcome   template.HTML
		Tools     []registry.Tool
		Resources []registry.Resource
		Prompts   []registry.Prompt
	}{
		ServerID:  page.ServerID,
		Welcome:   welcome,
		Tools:     page.Tools,
		Resources: page.Resources,
		Prompts:   page.Prompts,
	})
}

// renderMarkdown converts trusted, already-sanitized markdown to HTML.
func (r *Renderer) renderMarkdown(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
