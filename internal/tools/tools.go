// ABOUTME: Tool handler contract, typed errors, and startup registration of all tool packs.
// ABOUTME: Packs register explicitly here; there is no runtime plugin scanning.

package tools

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/zack-dev-cm/mcp-server/internal/registry"
	"github.com/zack-dev-cm/mcp-server/internal/store"
)

// Handler errors, mapped to the HTTP error taxonomy at the boundary.
var (
	// ErrBadInput indicates the tool's own input validation failed (400).
	ErrBadInput = errors.New("bad input")
	// ErrNotFound indicates the tool's target entity does not exist (404).
	ErrNotFound = errors.New("not found")
	// ErrUpstream indicates a dependency call failed (500, generic message).
	ErrUpstream = errors.New("upstream failure")
	// ErrNotConfigured indicates a required credential or endpoint is unset (500).
	ErrNotConfigured = errors.New("not configured")
)

// Deps carries everything the tool packs need. Tools hold no global state;
// each pack closes over the pieces of this struct it uses.
type Deps struct {
	Catalog        *registry.Catalog
	Snippets       *store.SQLiteStore
	OpenAIKey      string
	O4MiniEndpoint string
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// RegisterAll registers every enabled tool pack with the registry. The
// manifest can disable any pack by name.
func RegisterAll(reg *registry.Registry, deps Deps, manifest *registry.Manifest) error {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if manifest == nil {
		manifest = &registry.Manifest{}
	}

	packs := []struct {
		name     string
		register func(*registry.Registry, Deps) error
	}{
		{"base", RegisterBase},
		{"company", RegisterCompany},
		{"snippets", RegisterSnippets},
		{"openai", RegisterOpenAI},
		{"transcribe", RegisterTranscribe},
		{"o4mini", RegisterO4Mini},
	}

	for _, pack := range packs {
		if manifest.Disabled(pack.name) {
			deps.Logger.Info("tool pack disabled by manifest", "pack", pack.name)
			continue
		}
		if err := pack.register(reg, deps); err != nil {
			return fmt.Errorf("registering pack %s: %w", pack.name, err)
		}
		deps.Logger.Debug("tool pack registered", "pack", pack.name)
	}

	return nil
}

// stringParam extracts a required string parameter. The registry does not
// enforce schemas; every tool validates its own inputs through this helper.
func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%w: missing required parameter %q", ErrBadInput, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: parameter %q must be a string", ErrBadInput, key)
	}
	return s, nil
}

// optionalString extracts an optional string parameter with a default.
func optionalString(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}

// isoNow formats the current time as ISO-8601 UTC with a trailing Z.
func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
