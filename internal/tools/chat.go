// ABOUTME: o4mini.chat tool: forwards a prompt to a plain HTTP relay endpoint
// ABOUTME: speaking {"prompt": ...} -> {"response": ...}.

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/zack-dev-cm/mcp-server/internal/registry"
)

type relayRequest struct {
	Prompt string `json:"prompt"`
}

type relayResponse struct {
	Response string `json:"response"`
}

// RegisterO4Mini registers o4mini.chat against the configured relay endpoint.
func RegisterO4Mini(reg *registry.Registry, deps Deps) error {
	endpoint := deps.O4MiniEndpoint
	httpClient := deps.HTTPClient

	_, err := reg.Register(
		"o4mini.chat",
		"Sends a prompt to the o4-mini relay endpoint and returns its reply.",
		[]registry.Input{
			{Name: "prompt", Type: "string", Description: "User prompt for the relay", Required: true},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			prompt, err := stringParam(params, "prompt")
			if err != nil {
				return nil, err
			}
			if endpoint == "" {
				return nil, fmt.Errorf("%w: O4MINI_ENDPOINT is not set", ErrNotConfigured)
			}

			body, err := json.Marshal(relayRequest{Prompt: prompt})
			if err != nil {
				return nil, fmt.Errorf("%w: encoding relay request: %v", ErrUpstream, err)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("%w: building relay request: %v", ErrUpstream, err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := httpClient.Do(req)
			if err != nil {
				return nil, fmt.Errorf("%w: relay call: %v", ErrUpstream, err)
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return nil, fmt.Errorf("%w: reading relay response", ErrUpstream)
			}
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("%w: relay returned status %d", ErrUpstream, resp.StatusCode)
			}

			var out relayResponse
			if err := json.Unmarshal(raw, &out); err != nil {
				return nil, fmt.Errorf("%w: relay returned malformed JSON", ErrUpstream)
			}
			return map[string]any{"reply": out.Response}, nil
		},
	)
	return err
}
