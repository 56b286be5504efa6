// ABOUTME: JSON-RPC 2.0 envelope types shared by the REST and /mcp endpoints.
// ABOUTME: Supports single calls and batches (array of calls) in one body.

package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the protocol revision echoed in initialize responses and tool
// listings. Clients compare it by string equality only.
const Version = "2025-03-26"

// Standard JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ErrEmptyBatch indicates a batch request with no calls.
var ErrEmptyBatch = errors.New("empty batch")

// Request is a single JSON-RPC call. ID may be a string or a number, so it is
// kept raw and echoed back verbatim.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  map[string]any  `json:"params,omitempty"`
}

// Response carries either a result or an error, never both.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewResult builds a success response echoing the request id.
func NewResult(id json.RawMessage, result any) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}

// NewError builds an error response echoing the request id.
func NewError(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}}
}

// DecodeCalls parses a request body that is either a single call object or an
// array of calls. The second return value reports whether the input was a
// batch, which decides the response shape (object vs. array).
func DecodeCalls(body []byte) ([]Request, bool, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, false, errors.New("empty request body")
	}

	if trimmed[0] == '[' {
		var calls []Request
		if err := json.Unmarshal(trimmed, &calls); err != nil {
			return nil, true, fmt.Errorf("invalid batch: %w", err)
		}
		if len(calls) == 0 {
			return nil, true, ErrEmptyBatch
		}
		return calls, true, nil
	}

	var call Request
	if err := json.Unmarshal(trimmed, &call); err != nil {
		return nil, false, fmt.Errorf("invalid request: %w", err)
	}
	return []Request{call}, false, nil
}
