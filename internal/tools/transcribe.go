// ABOUTME: Audio transcription tool: downloads a remote audio file to a temp
// ABOUTME: path whose suffix follows the response Content-Type, then runs Whisper.

package tools

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/zack-dev-cm/mcp-server/internal/registry"
)

// maxAudioBytes caps downloads so a hostile URL cannot fill the disk.
const maxAudioBytes = 25 << 20

// RegisterTranscribe registers audio.transcribe.
func RegisterTranscribe(reg *registry.Registry, deps Deps) error {
	var client *openai.Client
	if deps.OpenAIKey != "" {
		cfg := openai.DefaultConfig(deps.OpenAIKey)
		cfg.HTTPClient = deps.HTTPClient
		client = openai.NewClientWithConfig(cfg)
	}
	httpClient := deps.HTTPClient

	_, err := reg.Register(
		"audio.transcribe",
		"Downloads an audio file by URL and transcribes it with Whisper.",
		[]registry.Input{
			{Name: "audioUrl", Type: "string", Description: "HTTP(S) URL of the audio file", Required: true},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			audioURL, err := stringParam(params, "audioUrl")
			if err != nil {
				return nil, err
			}
			if err := validateHTTPURL(audioURL); err != nil {
				return nil, err
			}
			if client == nil {
				return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrNotConfigured)
			}

			path, err := downloadAudio(ctx, httpClient, audioURL)
			if err != nil {
				return nil, err
			}
			defer os.Remove(path)

			resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
				Model:    openai.Whisper1,
				FilePath: path,
			})
			if err != nil {
				return nil, fmt.Errorf("%w: transcription: %v", ErrUpstream, err)
			}
			return map[string]any{"audioUrl": audioURL, "text": resp.Text}, nil
		},
	)
	return err
}

// audioSuffixes maps common audio content types to file suffixes. Whisper
// infers the container format from the filename, so the suffix matters.
var audioSuffixes = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/flac":  ".flac",
}

// downloadAudio fetches the URL into a temp file and returns its path.
// The caller is responsible for removing the file.
func downloadAudio(ctx context.Context, client *http.Client, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: building audio request: %v", ErrBadInput, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetching audio: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: audio fetch returned status %d", ErrUpstream, resp.StatusCode)
	}

	suffix := suffixForDownload(resp.Header.Get("Content-Type"), audioURL)
	f, err := os.CreateTemp("", "transcribe-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("%w: creating temp file: %v", ErrUpstream, err)
	}
	_, copyErr := io.Copy(f, io.LimitReader(resp.Body, maxAudioBytes))
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: saving audio", ErrUpstream)
	}
	return f.Name(), nil
}

// suffixForDownload picks a filename suffix from the response Content-Type,
// falling back to the URL path extension and finally to .mp3.
func suffixForDownload(contentType, audioURL string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if suffix, ok := audioSuffixes[mediaType]; ok {
		return suffix
	}
	if u, err := url.Parse(audioURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		for _, known := range audioSuffixes {
			if ext == known {
				return ext
			}
		}
	}
	return ".mp3"
}
