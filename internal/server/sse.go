// ABOUTME: Server-sent events plumbing: batch result streaming and the
// ABOUTME: endless GET /mcp heartbeat.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zack-dev-cm/mcp-server/internal/protocol"
)

// streamResponses replays the already-computed responses as one SSE event
// each, in batch order, then closes the stream.
func (s *Server) streamResponses(w http.ResponseWriter, r *http.Request, responses []protocol.Response) {
	flusher, ok := beginEventStream(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	for _, resp := range responses {
		if err := writeSSEEvent(w, "result", resp); err != nil {
			s.logger.Debug("client went away during result stream", "error", err)
			return
		}
		flusher.Flush()
	}
}

// handleHeartbeat streams a timestamp event every interval until the client
// disconnects. The first event is sent immediately so clients can confirm
// the stream is live without waiting a full interval.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	flusher, ok := beginEventStream(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	send := func() bool {
		err := writeSSEEvent(w, "heartbeat", map[string]string{
			"time": time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}

// handleSSERedirect keeps the legacy /sse path alive.
func (s *Server) handleSSERedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/mcp", http.StatusTemporaryRedirect)
}

func beginEventStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return flusher, true
}

// writeSSEEvent writes one event with a JSON data payload.
func writeSSEEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding event data: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
