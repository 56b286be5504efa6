// ABOUTME: HTTP-level tests for the REST surface: health, discovery,
// ABOUTME: initialize handshake, invocation errors, embeds, and user data auth.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zack-dev-cm/mcp-server/internal/auth"
	"github.com/zack-dev-cm/mcp-server/internal/registry"
	"github.com/zack-dev-cm/mcp-server/internal/session"
	"github.com/zack-dev-cm/mcp-server/internal/store"
	"github.com/zack-dev-cm/mcp-server/internal/tools"
)

const testSecret = "test-mcp-secret"

type testHarness struct {
	server   *Server
	handler  http.Handler
	registry *registry.Registry
	sessions *session.Store
	verifier *auth.JWTVerifier
	echoID   string
	failID   string
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	dir := t.TempDir()
	snippets, err := store.NewSQLiteStore(filepath.Join(dir, "snippets.sqlite3"), "test-key")
	if err != nil {
		t.Fatalf("creating snippet store: %v", err)
	}
	t.Cleanup(func() { snippets.Close() })
	userData, err := store.NewSQLiteStore(filepath.Join(dir, "userdata.db"), "test-key")
	if err != nil {
		t.Fatalf("creating user data store: %v", err)
	}
	t.Cleanup(func() { userData.Close() })

	reg := registry.New(nil)
	echoID, err := reg.Register("echo", "echoes", []registry.Input{
		{Name: "message", Type: "string", Required: true},
	}, func(ctx context.Context, params map[string]any) (any, error) {
		msg, ok := params["message"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: missing message", tools.ErrBadInput)
		}
		return map[string]any{"echo": msg}, nil
	})
	if err != nil {
		t.Fatalf("registering echo: %v", err)
	}
	failID, err := reg.Register("always.fails", "fails", nil,
		func(ctx context.Context, params map[string]any) (any, error) {
			return nil, fmt.Errorf("%w: synthetic failure", tools.ErrUpstream)
		})
	if err != nil {
		t.Fatalf("registering always.fails: %v", err)
	}

	catalog := registry.NewCatalog()
	catalog.SeedBuiltins(time.Now())

	sessions := session.NewStore()
	verifier := auth.NewJWTVerifier([]byte(testSecret))

	srv, err := New(Config{
		Registry:          reg,
		Catalog:           catalog,
		Sessions:          sessions,
		Snippets:          snippets,
		UserData:          userData,
		Secret:            testSecret,
		Verifier:          verifier,
		HeartbeatInterval: 25 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &testHarness{
		server:   srv,
		handler:  srv.Routes(),
		registry: reg,
		sessions: sessions,
		verifier: verifier,
		echoID:   echoID,
		failID:   failID,
	}
}

func (h *testHarness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}

func secretHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testSecret}
}

func TestHealth(t *testing.T) {
	h := newTestHarness(t)
	w := h.do(t, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	decodeJSON(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["now"] == nil || body["uptime"] == nil {
		t.Errorf("health body missing now/uptime: %v", body)
	}
}

func TestInitializeCreatesSession(t *testing.T) {
	h := newTestHarness(t)
	w := h.do(t, http.MethodPost, "/v1/initialize", map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "initialize",
		"params": map[string]any{"version": "9.9.9"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var body struct {
		Result struct {
			ServerID        string `json:"serverId"`
			ProtocolVersion string `json:"protocolVersion"`
			SessionID       string `json:"sessionId"`
			ServerTime      string `json:"serverTime"`
		} `json:"result"`
	}
	decodeJSON(t, w, &body)

	if !strings.HasPrefix(body.Result.ServerID, "mcp-demo-") {
		t.Errorf("serverId = %q, want mcp-demo- prefix", body.Result.ServerID)
	}
	if body.Result.ProtocolVersion != "2025-03-26" {
		t.Errorf("protocolVersion = %q", body.Result.ProtocolVersion)
	}
	if !h.sessions.Exists(body.Result.SessionID) {
		t.Error("returned sessionId is not a live session")
	}
	sess, _ := h.sessions.Get(body.Result.SessionID)
	if sess.ClientVersion != "9.9.9" {
		t.Errorf("ClientVersion = %q, want 9.9.9", sess.ClientVersion)
	}
}

func TestInitializeRejectsWrongMethod(t *testing.T) {
	h := newTestHarness(t)
	w := h.do(t, http.MethodPost, "/v1/initialize", map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "tools/list",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListToolsShape(t *testing.T) {
	h := newTestHarness(t)
	w := h.do(t, http.MethodGet, "/v1/tool", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body []map[string]struct {
		Name string `json:"name"`
	}
	decodeJSON(t, w, &body)
	if len(body) != 2 {
		t.Fatalf("got %d entries, want 2", len(body))
	}
	// Each entry is a single {id: descriptor} pair, in registration order.
	if desc, ok := body[0][h.echoID]; !ok || desc.Name != "echo" {
		t.Errorf("first entry = %v, want echo under its id", body[0])
	}
	if desc, ok := body[1][h.failID]; !ok || desc.Name != "always.fails" {
		t.Errorf("second entry = %v, want always.fails under its id", body[1])
	}
}

func TestListResourcesAndPrompts(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodGet, "/v1/resources", nil, nil)
	var resBody struct {
		Resources []struct {
			URI string `json:"uri"`
		} `json:"resources"`
	}
	decodeJSON(t, w, &resBody)
	if len(resBody.Resources) == 0 || resBody.Resources[0].URI != "memory://welcome-note" {
		t.Errorf("resources = %v, want seeded welcome note first", resBody.Resources)
	}

	w = h.do(t, http.MethodGet, "/v1/prompts", nil, nil)
	var promptBody struct {
		Prompts []struct {
			ID string `json:"id"`
		} `json:"prompts"`
	}
	decodeJSON(t, w, &promptBody)
	if len(promptBody.Prompts) == 0 || promptBody.Prompts[0].ID != "hello-world" {
		t.Errorf("prompts = %v, want seeded hello-world", promptBody.Prompts)
	}
}

func TestInvokeSuccess(t *testing.T) {
	h := newTestHarness(t)
	w := h.do(t, http.MethodPost, "/v1/tool/"+h.echoID+"/invoke",
		map[string]any{"message": "hello"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var body struct {
		ToolID string         `json:"toolId"`
		Result map[string]any `json:"result"`
	}
	decodeJSON(t, w, &body)
	if body.ToolID != h.echoID {
		t.Errorf("toolId = %q, want %q", body.ToolID, h.echoID)
	}
	if body.Result["echo"] != "hello" {
		t.Errorf("result = %v, want echo hello", body.Result)
	}
}

func TestInvokeErrorMapping(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodPost, "/v1/tool/no-such-tool/invoke", map[string]any{}, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown tool: status = %d, want 404", w.Code)
	}

	w = h.do(t, http.MethodPost, "/v1/tool/"+h.echoID+"/invoke", map[string]any{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad input: status = %d, want 400", w.Code)
	}

	missingID, err := h.registry.Register("missing.entity", "never finds anything", nil,
		func(ctx context.Context, params map[string]any) (any, error) {
			return nil, fmt.Errorf("%w: no record with that id", tools.ErrNotFound)
		})
	if err != nil {
		t.Fatalf("registering missing.entity: %v", err)
	}
	w = h.do(t, http.MethodPost, "/v1/tool/"+missingID+"/invoke", map[string]any{}, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing entity: status = %d, want 404", w.Code)
	}

	w = h.do(t, http.MethodPost, "/v1/tool/"+h.failID+"/invoke", map[string]any{}, nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("upstream failure: status = %d, want 500", w.Code)
	}
	var body map[string]string
	decodeJSON(t, w, &body)
	if strings.Contains(body["error"], "synthetic") {
		t.Errorf("internal error leaked detail: %q", body["error"])
	}
}

func TestInvokePanicIsContained(t *testing.T) {
	h := newTestHarness(t)
	panicID, err := h.registry.Register("panics", "panics", nil,
		func(ctx context.Context, params map[string]any) (any, error) {
			panic("boom")
		})
	if err != nil {
		t.Fatalf("registering panicking tool: %v", err)
	}

	w := h.do(t, http.MethodPost, "/v1/tool/"+panicID+"/invoke", map[string]any{}, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestEmbedRoundTrip(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodPost, "/api/embed",
		map[string]any{"html": "<p>Hi</p><script>alert(1)</script>"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("embed status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		ID            string `json:"id"`
		URL           string `json:"url"`
		SanitizedHTML string `json:"sanitizedHtml"`
		MD            string `json:"md"`
	}
	decodeJSON(t, w, &body)
	if body.URL != "/s/"+body.ID {
		t.Errorf("url = %q, want /s/%s", body.URL, body.ID)
	}
	if strings.Contains(body.SanitizedHTML, "script") {
		t.Errorf("sanitized HTML still contains script: %q", body.SanitizedHTML)
	}
	if !strings.Contains(body.MD, "Hi") {
		t.Errorf("md = %q, want it to contain Hi", body.MD)
	}

	// The response keys are part of the wire contract.
	var raw map[string]any
	decodeJSON(t, w, &raw)
	for _, key := range []string{"id", "url", "sanitizedHtml", "md"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("embed response missing key %q: %v", key, raw)
		}
	}
	if _, ok := raw["markdown"]; ok {
		t.Errorf("embed response carries a stray markdown key: %v", raw)
	}

	page := h.do(t, http.MethodGet, body.URL, nil, nil)
	if page.Code != http.StatusOK {
		t.Fatalf("snippet page status = %d", page.Code)
	}
	if ct := page.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(page.Body.String(), "Hi") {
		t.Errorf("snippet page does not contain the embedded text")
	}
}

func TestEmbedPlainOverrideAndSources(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodPost, "/api/embed", map[string]any{
		"html":    "<p>Body text</p>",
		"plain":   "custom plain text",
		"sources": []string{"https://example.com/a", "https://example.com/b"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("embed status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		ID string `json:"id"`
		MD string `json:"md"`
	}
	decodeJSON(t, w, &body)
	if !strings.Contains(body.MD, "https://example.com/a") ||
		!strings.Contains(body.MD, "https://example.com/b") {
		t.Errorf("md missing source links: %q", body.MD)
	}

	// The supplied plain text is what search indexes.
	snip, err := h.server.snippets.GetSnippet(context.Background(), body.ID)
	if err != nil {
		t.Fatalf("fetching stored snippet: %v", err)
	}
	if snip.Plain != "custom plain text" {
		t.Errorf("stored plain = %q, want the supplied override", snip.Plain)
	}
}

func TestEmbedValidation(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodPost, "/api/embed", map[string]any{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing html: status = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/embed", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestNavigatePredictsTools(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodPost, "/api/navigate",
		map[string]any{"chat_history": "What is the weather today?"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Actions []struct {
			Tool   string `json:"tool"`
			ToolID string `json:"toolId"`
		} `json:"actions"`
	}
	decodeJSON(t, w, &body)
	found := false
	for _, act := range body.Actions {
		if act.Tool == "weather.fake" {
			found = true
		}
	}
	if !found {
		t.Errorf("actions = %v, want a weather.fake prediction", body.Actions)
	}

	// A suggestion for a registered tool carries its invocation id.
	w = h.do(t, http.MethodPost, "/api/navigate",
		map[string]any{"chat_history": "please echo that back"}, nil)
	decodeJSON(t, w, &body)
	if len(body.Actions) == 0 || body.Actions[0].Tool != "echo" || body.Actions[0].ToolID != h.echoID {
		t.Errorf("actions = %v, want echo with its registered id", body.Actions)
	}
}

func TestNavigateValidation(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodPost, "/api/navigate", map[string]any{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing chat_history: status = %d, want 400", w.Code)
	}

	w = h.do(t, http.MethodPost, "/api/navigate",
		map[string]any{"chat_history": "nothing relevant here"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Actions []any `json:"actions"`
	}
	decodeJSON(t, w, &body)
	if body.Actions == nil || len(body.Actions) != 0 {
		t.Errorf("actions = %v, want an empty list", body.Actions)
	}
}

func TestSnippetPageUnknown(t *testing.T) {
	h := newTestHarness(t)
	w := h.do(t, http.MethodGet, "/s/deadbeef", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestIndexPageListsTools(t *testing.T) {
	h := newTestHarness(t)
	w := h.do(t, http.MethodGet, "/", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, "echo") || !strings.Contains(page, "memory://welcome-note") {
		t.Errorf("index page missing tool or resource listings")
	}
}

func TestUserDataRequiresSession(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodGet, "/api/user/data", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	// The MCP shared secret must not open the session-scoped surface.
	w = h.do(t, http.MethodGet, "/api/user/data", nil, secretHeader())
	if w.Code != http.StatusUnauthorized {
		t.Errorf("mcp secret on session surface: status = %d, want 401", w.Code)
	}
}

func TestUserDataLifecycle(t *testing.T) {
	h := newTestHarness(t)
	sess := h.sessions.Create("test")
	hdr := map[string]string{"Authorization": "Bearer " + sess.Token}

	// Nothing stored yet: an empty object, not an error.
	w := h.do(t, http.MethodGet, "/api/user/data", nil, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("empty get: status = %d", w.Code)
	}
	var empty map[string]any
	decodeJSON(t, w, &empty)
	if len(empty) != 0 {
		t.Errorf("empty get = %v, want {}", empty)
	}

	w = h.do(t, http.MethodPost, "/api/user/data", map[string]any{"theme": "dark"}, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("post: status = %d: %s", w.Code, w.Body.String())
	}

	w = h.do(t, http.MethodGet, "/api/user/data", nil, hdr)
	var stored map[string]any
	decodeJSON(t, w, &stored)
	if stored["theme"] != "dark" {
		t.Errorf("stored = %v, want theme dark", stored)
	}

	// Another live session sees its own empty document, not this one.
	other := h.sessions.Create("test")
	w = h.do(t, http.MethodGet, "/api/user/data", nil,
		map[string]string{"Authorization": "Bearer " + other.Token})
	var otherDoc map[string]any
	decodeJSON(t, w, &otherDoc)
	if len(otherDoc) != 0 {
		t.Errorf("other session sees %v, want {}", otherDoc)
	}

	w = h.do(t, http.MethodDelete, "/api/user/data", nil, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}
	w = h.do(t, http.MethodDelete, "/api/user/data", nil, hdr)
	if w.Code != http.StatusOK {
		t.Errorf("second delete: status = %d, want 200", w.Code)
	}

	w = h.do(t, http.MethodGet, "/api/user/data", nil, hdr)
	var afterDelete map[string]any
	decodeJSON(t, w, &afterDelete)
	if len(afterDelete) != 0 {
		t.Errorf("after delete = %v, want {}", afterDelete)
	}
}

func TestUserDataRejectsInvalidJSON(t *testing.T) {
	h := newTestHarness(t)
	sess := h.sessions.Create("test")

	req := httptest.NewRequest(http.MethodPost, "/api/user/data", strings.NewReader("{broken"))
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
