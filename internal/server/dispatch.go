// ABOUTME: JSON-RPC dispatcher for POST /mcp: single calls, ordered batches,
// ABOUTME: and per-result SSE streaming when the client asks for it.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zack-dev-cm/mcp-server/internal/protocol"
	"github.com/zack-dev-cm/mcp-server/internal/registry"
	"github.com/zack-dev-cm/mcp-server/internal/tools"
)

// handleMCPPost decodes one call or a batch and dispatches sequentially in
// input order. A failed call yields an error response at its position; it
// never aborts the rest of the batch.
func (s *Server) handleMCPPost(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		return
	}

	calls, batch, err := protocol.DecodeCalls(body)
	if err != nil {
		code := protocol.CodeParseError
		msg := "Parse error"
		if errors.Is(err, protocol.ErrEmptyBatch) {
			code = protocol.CodeInvalidRequest
			msg = "Batch must not be empty"
		}
		writeJSON(w, http.StatusBadRequest, protocol.NewError(nil, code, msg))
		return
	}

	responses := make([]protocol.Response, 0, len(calls))
	for _, call := range calls {
		responses = append(responses, s.dispatch(r, call))
	}

	if wantsEventStream(r) {
		s.streamResponses(w, r, responses)
		return
	}

	if batch {
		writeJSON(w, http.StatusOK, responses)
		return
	}
	writeJSON(w, http.StatusOK, responses[0])
}

// dispatch routes one decoded call to its method handler.
func (s *Server) dispatch(r *http.Request, call protocol.Request) protocol.Response {
	switch {
	case call.Method == "initialize":
		return protocol.NewResult(call.ID, s.initializeResult(call.Params))

	case call.Method == "tools/list":
		return protocol.NewResult(call.ID, map[string]any{"tools": s.registry.List()})

	case call.Method == "resources/list":
		return protocol.NewResult(call.ID, map[string]any{"resources": s.catalog.Resources()})

	case call.Method == "prompts/list":
		return protocol.NewResult(call.ID, map[string]any{"prompts": s.catalog.Prompts()})

	case isInvokeMethod(call.Method):
		return s.dispatchInvoke(r, call)

	default:
		return protocol.NewError(call.ID, protocol.CodeMethodNotFound, fmt.Sprintf("Unknown method %s", call.Method))
	}
}

// isInvokeMethod matches "tool/<id>/invoke".
func isInvokeMethod(method string) bool {
	return strings.HasPrefix(method, "tool/") && strings.HasSuffix(method, "/invoke") &&
		len(method) > len("tool/")+len("/invoke")
}

func invokeToolID(method string) string {
	return strings.TrimSuffix(strings.TrimPrefix(method, "tool/"), "/invoke")
}

func (s *Server) dispatchInvoke(r *http.Request, call protocol.Request) protocol.Response {
	toolID := invokeToolID(call.Method)

	tool, err := s.registry.Get(toolID)
	if errors.Is(err, registry.ErrToolNotFound) {
		return protocol.NewError(call.ID, protocol.CodeInvalidParams, fmt.Sprintf("Tool %s not found", toolID))
	}

	params := call.Params
	if params == nil {
		params = map[string]any{}
	}

	result, err := s.invokeTool(r, tool, params)
	switch {
	case err == nil:
		return protocol.NewResult(call.ID, result)
	case errors.Is(err, tools.ErrBadInput), errors.Is(err, tools.ErrNotFound):
		return protocol.NewError(call.ID, protocol.CodeInvalidParams, err.Error())
	default:
		s.logger.Error("dispatched tool failed", "tool", tool.Name, "error", err)
		return protocol.NewError(call.ID, protocol.CodeInternalError, "Tool execution failed")
	}
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}
