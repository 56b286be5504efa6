// ABOUTME: Snippet tools backed by the SQLite store: full-text-ish search and
// ABOUTME: fetch of previously embedded pages.

package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/zack-dev-cm/mcp-server/internal/registry"
	"github.com/zack-dev-cm/mcp-server/internal/store"
)

// RegisterSnippets registers snippet.search and snippet.fetch against the
// snippet store. Registration fails if no store was provided.
func RegisterSnippets(reg *registry.Registry, deps Deps) error {
	if deps.Snippets == nil {
		return errors.New("snippet pack requires a snippet store")
	}
	snippets := deps.Snippets

	if _, err := reg.Register(
		"snippet.search",
		"Searches stored snippets and returns id, title, text preview and URL for each hit.",
		[]registry.Input{
			{Name: "query", Type: "string", Description: "Substring matched against snippet text", Required: true},
			{Name: "limit", Type: "number", Description: "Maximum number of results (default 10)", Required: false},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			query, err := stringParam(params, "query")
			if err != nil {
				return nil, err
			}
			limit := 0
			if raw, ok := params["limit"]; ok {
				f, ok := raw.(float64)
				if !ok || f < 0 || f != math.Trunc(f) {
					return nil, fmt.Errorf("%w: limit must be a non-negative integer", ErrBadInput)
				}
				limit = int(f)
			}
			results, err := snippets.SearchSnippets(ctx, query, limit)
			if err != nil {
				return nil, fmt.Errorf("%w: snippet search: %v", ErrUpstream, err)
			}
			return map[string]any{"query": query, "results": results}, nil
		},
	); err != nil {
		return err
	}

	if _, err := reg.Register(
		"snippet.fetch",
		"Fetches a stored snippet by id, returning its markdown and plain text.",
		[]registry.Input{
			{Name: "id", Type: "string", Description: "Snippet id as returned by snippet.search or /api/embed", Required: true},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			id, err := stringParam(params, "id")
			if err != nil {
				return nil, err
			}
			snip, err := snippets.GetSnippet(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: no snippet with id %q", ErrNotFound, id)
			}
			if err != nil {
				return nil, fmt.Errorf("%w: snippet fetch: %v", ErrUpstream, err)
			}
			return map[string]any{
				"id":       snip.ID,
				"html":     snip.HTML,
				"markdown": snip.Markdown,
				"text":     snip.Plain,
				"url":      "/s/" + snip.ID,
				"created":  snip.Created.Format(time.RFC3339),
			}, nil
		},
	); err != nil {
		return err
	}

	return nil
}
