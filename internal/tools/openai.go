// ABOUTME: OpenAI-backed tools: text chat and image-aware vision chat.
// ABOUTME: Tools are always listed; invocation fails cleanly when no API key is set.

package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/zack-dev-cm/mcp-server/internal/registry"
)

const (
	defaultChatModel   = openai.GPT4oMini
	defaultVisionModel = openai.GPT4o
)

// RegisterOpenAI registers openai.chat and openai.vision. Both share one
// client built from the configured API key.
func RegisterOpenAI(reg *registry.Registry, deps Deps) error {
	var client *openai.Client
	if deps.OpenAIKey != "" {
		cfg := openai.DefaultConfig(deps.OpenAIKey)
		cfg.HTTPClient = deps.HTTPClient
		client = openai.NewClientWithConfig(cfg)
	}

	if _, err := reg.Register(
		"openai.chat",
		"Sends a prompt to an OpenAI chat model and returns the reply.",
		[]registry.Input{
			{Name: "prompt", Type: "string", Description: "User prompt for the model", Required: true},
			{Name: "model", Type: "string", Description: "Model override (default " + defaultChatModel + ")", Required: false},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			prompt, err := stringParam(params, "prompt")
			if err != nil {
				return nil, err
			}
			if client == nil {
				return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrNotConfigured)
			}
			model := optionalString(params, "model", defaultChatModel)
			resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model: model,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleUser, Content: prompt},
				},
			})
			if err != nil {
				return nil, fmt.Errorf("%w: openai chat: %v", ErrUpstream, err)
			}
			if len(resp.Choices) == 0 {
				return nil, fmt.Errorf("%w: openai chat returned no choices", ErrUpstream)
			}
			return map[string]any{
				"model": resp.Model,
				"reply": resp.Choices[0].Message.Content,
			}, nil
		},
	); err != nil {
		return err
	}

	if _, err := reg.Register(
		"openai.vision",
		"Asks an OpenAI vision model a question about an image URL.",
		[]registry.Input{
			{Name: "imageUrl", Type: "string", Description: "HTTP(S) URL of the image to inspect", Required: true},
			{Name: "prompt", Type: "string", Description: "Question about the image (default: describe it)", Required: false},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			imageURL, err := stringParam(params, "imageUrl")
			if err != nil {
				return nil, err
			}
			if err := validateHTTPURL(imageURL); err != nil {
				return nil, err
			}
			if client == nil {
				return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrNotConfigured)
			}
			prompt := optionalString(params, "prompt", "Describe this image.")
			resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model: defaultVisionModel,
				Messages: []openai.ChatCompletionMessage{
					{
						Role: openai.ChatMessageRoleUser,
						MultiContent: []openai.ChatMessagePart{
							{Type: openai.ChatMessagePartTypeText, Text: prompt},
							{
								Type:     openai.ChatMessagePartTypeImageURL,
								ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
							},
						},
					},
				},
			})
			if err != nil {
				return nil, fmt.Errorf("%w: openai vision: %v", ErrUpstream, err)
			}
			if len(resp.Choices) == 0 {
				return nil, fmt.Errorf("%w: openai vision returned no choices", ErrUpstream)
			}
			return map[string]any{
				"model": resp.Model,
				"reply": resp.Choices[0].Message.Content,
			}, nil
		},
	); err != nil {
		return err
	}

	return nil
}

// validateHTTPURL rejects anything that is not an absolute http(s) URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: %q is not a valid URL", ErrBadInput, raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: URL scheme must be http or https", ErrBadInput)
	}
	return nil
}
