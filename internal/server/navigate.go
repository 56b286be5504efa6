// ABOUTME: Chat-history navigation hints: keyword rules over the conversation
// ABOUTME: text predict which registered tools a client should invoke next.

package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

type navigateRequest struct {
	ChatHistory string `json:"chat_history"`
}

type navigateAction struct {
	Tool   string `json:"tool"`
	ToolID string `json:"toolId,omitempty"`
}

// navigateRules maps trigger keywords to the tool they suggest. Order fixes
// the precedence of the returned actions.
var navigateRules = []struct {
	keywords []string
	tool     string
}{
	{[]string{"weather", "forecast", "temperature"}, "weather.fake"},
	{[]string{"calculate", "math", "sum of"}, "calculator"},
	{[]string{"echo"}, "echo"},
	{[]string{"file", "document", "resource"}, "file.search"},
	{[]string{"company"}, "company.search"},
	{[]string{"snippet"}, "snippet.search"},
	{[]string{"transcribe", "audio"}, "audio.transcribe"},
}

// handleNavigate suggests the next tool calls for a conversation. Matching is
// plain substring search over the lowercased history.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		return
	}

	var req navigateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}
	history := strings.ToLower(strings.TrimSpace(req.ChatHistory))
	if history == "" {
		writeError(w, http.StatusBadRequest, "Field \"chat_history\" is required")
		return
	}

	ids := make(map[string]string)
	for _, desc := range s.registry.List() {
		if _, seen := ids[desc.Name]; !seen {
			ids[desc.Name] = desc.ID
		}
	}

	actions := []navigateAction{}
	for _, rule := range navigateRules {
		for _, kw := range rule.keywords {
			if strings.Contains(history, kw) {
				actions = append(actions, navigateAction{Tool: rule.tool, ToolID: ids[rule.tool]})
				break
			}
		}
	}

	s.logger.Info("navigation predicted", "actions", len(actions))
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions})
}
