// ABOUTME: Embed pipeline: sanitize submitted HTML, derive markdown and plain
// ABOUTME: text, persist the snippet, and serve its rendered page at /s/{id}.

package server

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zack-dev-cm/mcp-server/internal/store"
	"github.com/zack-dev-cm/mcp-server/internal/web"
)

type embedRequest struct {
	HTML    string   `json:"html"`
	Plain   string   `json:"plain,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

const indexWelcome = "Send JSON-RPC calls to `POST /mcp` with the shared secret, " +
	"or explore the REST surface under `/v1`. Embedded pages live at `/s/{id}`."

// handleEmbed accepts raw HTML, sanitizes it, derives markdown and plain
// text, and stores the result under a fresh short id.
func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	if s.snippets == nil {
		writeError(w, http.StatusServiceUnavailable, "Snippet storage is not configured")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		return
	}

	var req embedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		writeError(w, http.StatusBadRequest, "Field \"html\" is required")
		return
	}

	sanitized := s.sanitizer.Sanitize(req.HTML)

	// The caller may supply its own plain text; otherwise strip the markup.
	plain := strings.TrimSpace(req.Plain)
	if plain == "" {
		plain = strings.TrimSpace(html.UnescapeString(s.stripper.Sanitize(req.HTML)))
	}

	markdown, err := s.converter.ConvertString(sanitized)
	if err != nil {
		s.logger.Error("markdown conversion failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not convert snippet")
		return
	}
	markdown = appendSources(markdown, req.Sources)

	snip := &store.Snippet{
		ID:       shortID(),
		HTML:     sanitized,
		Plain:    plain,
		Markdown: markdown,
	}
	if err := s.snippets.SaveSnippet(r.Context(), snip); err != nil {
		s.logger.Error("saving snippet failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not store snippet")
		return
	}

	s.logger.Info("snippet embedded", "snippet", snip.ID, "bytes", len(sanitized))
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            snip.ID,
		"url":           "/s/" + snip.ID,
		"sanitizedHtml": snip.HTML,
		"md":            snip.Markdown,
	})
}

// handleSnippetPage renders a stored snippet's markdown as a standalone page.
func (s *Server) handleSnippetPage(w http.ResponseWriter, r *http.Request) {
	if s.snippets == nil {
		http.NotFound(w, r)
		return
	}

	id := chi.URLParam(r, "snippetID")
	snip, err := s.snippets.GetSnippet(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("loading snippet failed", "snippet", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.RenderSnippet(w, web.SnippetPage{
		ID:       snip.ID,
		Markdown: snip.Markdown,
		Created:  snip.Created,
	}); err != nil {
		s.logger.Error("rendering snippet page failed", "snippet", id, "error", err)
	}
}

// handleIndex serves the small demo UI over the registry and catalog.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.RenderIndex(w, web.IndexPage{
		ServerID:  s.serverID,
		Welcome:   indexWelcome,
		Tools:     s.registry.List(),
		Resources: s.catalog.Resources(),
		Prompts:   s.catalog.Prompts(),
	}); err != nil {
		s.logger.Error("rendering index failed", "error", err)
	}
}

// appendSources adds a trailing source-link list to the markdown.
func appendSources(markdown string, sources []string) string {
	if len(sources) == 0 {
		return markdown
	}
	var b strings.Builder
	b.WriteString(strings.TrimRight(markdown, "\n"))
	b.WriteString("\n\n**Sources**\n\n")
	for _, src := range sources {
		b.WriteString("- <")
		b.WriteString(src)
		b.WriteString(">\n")
	}
	return b.String()
}

// shortID returns an 8-character id for snippet URLs. Collisions over the
// demo store's lifetime are vanishingly unlikely at this scale.
func shortID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
