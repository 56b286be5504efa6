// ABOUTME: HTTP server composition: router, middleware, and the REST surface
// ABOUTME: for discovery, initialize, tool invocation, embeds, and user data.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/zack-dev-cm/mcp-server/internal/auth"
	"github.com/zack-dev-cm/mcp-server/internal/protocol"
	"github.com/zack-dev-cm/mcp-server/internal/registry"
	"github.com/zack-dev-cm/mcp-server/internal/session"
	"github.com/zack-dev-cm/mcp-server/internal/store"
	"github.com/zack-dev-cm/mcp-server/internal/tools"
	"github.com/zack-dev-cm/mcp-server/internal/web"
)

// maxBodyBytes caps request bodies on the JSON endpoints.
const maxBodyBytes = 1 << 20

// Config carries the server's collaborators. All fields except the stores
// are required; a nil store disables the endpoints that need it.
type Config struct {
	Logger            *slog.Logger
	Registry          *registry.Registry
	Catalog           *registry.Catalog
	Sessions          *session.Store
	Snippets          *store.SQLiteStore
	UserData          *store.SQLiteStore
	Secret            string
	Verifier          auth.TokenVerifier
	HeartbeatInterval time.Duration
}

// Server is the HTTP layer over the registry, catalog, and stores.
type Server struct {
	logger    *slog.Logger
	registry  *registry.Registry
	catalog   *registry.Catalog
	sessions  *session.Store
	snippets  *store.SQLiteStore
	userData  *store.SQLiteStore
	secret    string
	verifier  auth.TokenVerifier
	heartbeat time.Duration
	serverID  string
	started   time.Time

	sanitizer *bluemonday.Policy
	stripper  *bluemonday.Policy
	converter *md.Converter
	pages     *web.Renderer
}

// New creates a Server. The server id is regenerated on every process start.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("server requires a tool registry")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("server requires a catalog")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("server requires a session store")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 15 * time.Second
	}

	pages, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("loading page templates: %w", err)
	}

	return &Server{
		logger:    cfg.Logger,
		registry:  cfg.Registry,
		catalog:   cfg.Catalog,
		sessions:  cfg.Sessions,
		snippets:  cfg.Snippets,
		userData:  cfg.UserData,
		secret:    cfg.Secret,
		verifier:  cfg.Verifier,
		heartbeat: cfg.HeartbeatInterval,
		serverID:  "mcp-demo-" + uuid.New().String(),
		started:   time.Now(),
		sanitizer: bluemonday.UGCPolicy(),
		stripper:  bluemonday.StrictPolicy(),
		converter: md.NewConverter("", true, nil),
		pages:     pages,
	}, nil
}

// Routes assembles the full router. Auth boundaries: /mcp requires the shared
// secret or a JWT signed with it, /api/user/data requires a session token,
// everything else is open.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(allowAllCORS)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/s/{snippetID}", s.handleSnippetPage)
	r.Post("/api/embed", s.handleEmbed)
	r.Post("/api/navigate", s.handleNavigate)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/initialize", s.handleInitialize)
		r.Get("/tool", s.handleListTools)
		r.Get("/resources", s.handleListResources)
		r.Get("/prompts", s.handleListPrompts)
		r.Post("/tool/{toolID}/invoke", s.handleInvoke)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSecret(s.secret, s.verifier))
		r.Post("/mcp", s.handleMCPPost)
		r.Get("/mcp", s.handleHeartbeat)
	})

	// The legacy stream entry point only redirects; /mcp enforces the secret.
	r.Get("/sse", s.handleSSERedirect)

	r.Route("/api/user/data", func(r chi.Router) {
		r.Use(auth.RequireSession(s.sessions))
		r.Get("/", s.handleGetUserData)
		r.Post("/", s.handlePutUserData)
		r.Delete("/", s.handleDeleteUserData)
	})

	return r
}

// allowAllCORS mirrors a wide-open development CORS policy. The demo server
// is meant to be called from arbitrary local frontends.
func allowAllCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
		"now":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleInitialize accepts a JSON-RPC initialize envelope, creates a session,
// and returns the handshake result inside a JSON-RPC response.
func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		return
	}

	var req protocol.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.NewError(nil, protocol.CodeParseError, "Parse error"))
		return
	}
	if req.Method != "initialize" {
		writeJSON(w, http.StatusBadRequest, protocol.NewError(req.ID, protocol.CodeMethodNotFound, "Expected method \"initialize\""))
		return
	}

	writeJSON(w, http.StatusOK, protocol.NewResult(req.ID, s.initializeResult(req.Params)))
}

// initializeResult performs the handshake shared by /v1/initialize and the
// "initialize" method on /mcp: register a session and describe the server.
func (s *Server) initializeResult(params map[string]any) map[string]any {
	clientVersion, _ := params["version"].(string)
	sess := s.sessions.Create(clientVersion)
	s.logger.Info("session initialized", "session", sess.Token, "client_version", sess.ClientVersion)
	return map[string]any{
		"serverId":        s.serverID,
		"protocolVersion": protocol.Version,
		"sessionId":       sess.Token,
		"serverTime":      time.Now().UTC().Format(time.RFC3339),
	}
}

// handleListTools returns a list of single-entry {id: descriptor} objects,
// preserving registration order.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List()
	out := make([]map[string]registry.Tool, 0, len(list))
	for _, tool := range list {
		out = append(out, map[string]registry.Tool{tool.ID: tool})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"resources": s.catalog.Resources()})
}

func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"prompts": s.catalog.Prompts()})
}

// handleInvoke runs one tool by id. Handler errors map onto the REST error
// taxonomy; anything unrecognized is reported as a generic internal error.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "toolID")

	tool, err := s.registry.Get(toolID)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Tool %s not found", toolID))
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		return
	}
	params := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &params); err != nil {
			writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
			return
		}
	}

	result, err := s.invokeTool(r, tool, params)
	if err != nil {
		s.writeInvokeError(w, tool.Name, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"toolId": tool.ID, "result": result})
}

// invokeTool runs the handler with a panic guard so one misbehaving tool
// cannot take down the process.
func (s *Server) invokeTool(r *http.Request, tool *registry.Tool, params map[string]any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("tool handler panicked", "tool", tool.Name, "panic", rec)
			err = fmt.Errorf("%w: tool handler panicked", tools.ErrUpstream)
		}
	}()
	return tool.Invoke(r.Context(), params)
}

func (s *Server) writeInvokeError(w http.ResponseWriter, toolName string, err error) {
	switch {
	case errors.Is(err, tools.ErrBadInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tools.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tools.ErrNotConfigured):
		s.logger.Warn("tool invoked without configuration", "tool", toolName, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("tool invocation failed", "tool", toolName, "error", err)
		writeError(w, http.StatusInternalServerError, "Tool execution failed")
	}
}

// readBody reads a size-capped request body, writing the 413 itself.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return nil, err
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
