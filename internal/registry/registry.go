// ABOUTME: Thread-safe registry of invocable tools with generated ids.
// ABOUTME: Registration happens during startup composition; reads are lock-cheap afterward.

package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrNilHandler indicates an attempt to register a tool without a handler.
// A tool with no handler must never be invocable, so registration refuses it.
var ErrNilHandler = errors.New("tool handler is required")

// ErrToolNotFound indicates the requested tool id is not registered.
var ErrToolNotFound = errors.New("tool not found")

// Handler executes a tool call. Params are the decoded JSON parameter object;
// handlers validate their own required inputs and may block on I/O under ctx.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// Input describes one named tool parameter.
type Input struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Tool is a registered capability. The handler is kept off the JSON surface;
// external views only ever see the descriptor fields.
type Tool struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Inputs      []Input          `json:"inputs"`
	Examples    []map[string]any `json:"examples,omitempty"`

	handler Handler
}

// Invoke runs the tool's handler.
func (t *Tool) Invoke(ctx context.Context, params map[string]any) (any, error) {
	return t.handler(ctx, params)
}

// Registry holds all registered tools. Names are not keys: registering the
// same name twice yields two distinct tools. There is no unregister; tools
// live for the process lifetime.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Tool
	order  []string
	logger *slog.Logger
}

// New creates an empty Registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byID:   make(map[string]*Tool),
		logger: logger,
	}
}

// Register allocates a fresh id, stores the descriptor, and returns the id.
// Returns ErrNilHandler if handler is nil.
func (r *Registry) Register(name, description string, inputs []Input, handler Handler) (string, error) {
	if handler == nil {
		return "", ErrNilHandler
	}

	tool := &Tool{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Inputs:      append([]Input(nil), inputs...),
		handler:     handler,
	}

	r.mu.Lock()
	r.byID[tool.ID] = tool
	r.order = append(r.order, tool.ID)
	r.mu.Unlock()

	r.logger.Debug("tool registered", "tool_id", tool.ID, "name", name)
	return tool.ID, nil
}

// Get returns the tool for an exact id, or ErrToolNotFound.
func (r *Registry) Get(id string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.byID[id]
	if !ok {
		return nil, ErrToolNotFound
	}
	return tool, nil
}

// List returns descriptor copies in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, id := range r.order {
		t := *r.byID[id]
		t.handler = nil
		tools = append(tools, t)
	}
	return tools
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
