// ABOUTME: Read-mostly catalogs of discoverable resources and prompt templates.
// ABOUTME: Populated at startup from built-in samples and the optional manifest.

package registry

import (
	"strings"
	"sync"
	"time"
)

// Resource is a static piece of content exposed for discovery, keyed by URI.
type Resource struct {
	URI         string         `json:"uri"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

// Prompt is a named template intended for LLM consumption.
type Prompt struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Template    string `json:"template"`
}

// Catalog holds the resource and prompt maps. Mutation only happens during
// startup; request handling reads concurrently.
type Catalog struct {
	mu            sync.RWMutex
	resources     map[string]Resource
	resourceOrder []string
	prompts       map[string]Prompt
	promptOrder   []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		resources: make(map[string]Resource),
		prompts:   make(map[string]Prompt),
	}
}

// AddResource inserts or replaces a resource by URI.
func (c *Catalog) AddResource(res Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.resources[res.URI]; !exists {
		c.resourceOrder = append(c.resourceOrder, res.URI)
	}
	c.resources[res.URI] = res
}

// AddPrompt inserts or replaces a prompt by id.
func (c *Catalog) AddPrompt(p Prompt) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.prompts[p.ID]; !exists {
		c.promptOrder = append(c.promptOrder, p.ID)
	}
	c.prompts[p.ID] = p
}

// Resources returns resource copies in insertion order.
func (c *Catalog) Resources() []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Resource, 0, len(c.resourceOrder))
	for _, uri := range c.resourceOrder {
		out = append(out, c.resources[uri])
	}
	return out
}

// Prompts returns prompt copies in insertion order.
func (c *Catalog) Prompts() []Prompt {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Prompt, 0, len(c.promptOrder))
	for _, id := range c.promptOrder {
		out = append(out, c.prompts[id])
	}
	return out
}

// SearchResources returns resources whose description contains the term,
// case-insensitively.
func (c *Catalog) SearchResources(term string) []Resource {
	term = strings.ToLower(term)

	c.mu.RLock()
	defer c.mu.RUnlock()

	var hits []Resource
	for _, uri := range c.resourceOrder {
		res := c.resources[uri]
		if strings.Contains(strings.ToLower(res.Description), term) {
			hits = append(hits, res)
		}
	}
	return hits
}

// SeedBuiltins populates the sample resource and prompt every server ships with.
func (c *Catalog) SeedBuiltins(now time.Time) {
	c.AddResource(Resource{
		URI:         "memory://welcome-note",
		Description: "Welcome note explaining how to use the demo MCP server",
		Metadata: map[string]any{
			"author":  "system",
			"created": now.UTC().Format(time.RFC3339),
		},
	})
	c.AddPrompt(Prompt{
		ID:          "hello-world",
		Name:        "Hello World",
		Description: "Greets the user",
		Template:    "You are a helpful AI. Greet the user.",
	})
}
