// ABOUTME: Snippet persistence: sanitized HTML plus plain-text and markdown renderings.
// ABOUTME: Search is a plain-text LIKE over the ten most recent matches.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Snippet is a saved chat excerpt produced by the embed endpoint.
type Snippet struct {
	ID       string
	HTML     string
	Plain    string
	Markdown string
	Created  time.Time
}

// SnippetSummary is the truncated search-result projection.
type SnippetSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// SaveSnippet inserts a snippet. The caller generates the id.
func (s *SQLiteStore) SaveSnippet(ctx context.Context, snip *Snippet) error {
	if snip.Created.IsZero() {
		snip.Created = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snippets (id, html, plain, markdown, created) VALUES (?, ?, ?, ?, ?)`,
		snip.ID, snip.HTML, snip.Plain, snip.Markdown, snip.Created.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting snippet: %w", err)
	}

	s.logger.Debug("saved snippet", "id", snip.ID, "plain_len", len(snip.Plain))
	return nil
}

// GetSnippet retrieves a snippet by id. Returns ErrNotFound for unknown ids.
func (s *SQLiteStore) GetSnippet(ctx context.Context, id string) (*Snippet, error) {
	var snip Snippet
	var created string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, html, plain, markdown, created FROM snippets WHERE id = ?`, id,
	).Scan(&snip.ID, &snip.HTML, &snip.Plain, &snip.Markdown, &created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying snippet: %w", err)
	}

	if parsed, err := time.Parse(time.RFC3339, created); err == nil {
		snip.Created = parsed
	}
	return &snip, nil
}

// SearchSnippets returns summaries of the most recent snippets whose plain
// text contains the query, newest first. Limit defaults to 10.
func (s *SQLiteStore) SearchSnippets(ctx context.Context, query string, limit int) ([]SnippetSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, substr(plain, 1, 160) FROM snippets
		 WHERE plain LIKE ? ORDER BY created DESC LIMIT ?`,
		"%"+query+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying snippets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SnippetSummary
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("scanning snippet row: %w", err)
		}
		results = append(results, SnippetSummary{
			ID:    id,
			Title: "Snippet " + id,
			Text:  text,
			URL:   "/s/" + id,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snippet rows: %w", err)
	}

	return results, nil
}
