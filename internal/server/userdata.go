// ABOUTME: Per-session user data endpoints. Values are opaque JSON documents
// ABOUTME: keyed by session token and stored encrypted at rest.

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zack-dev-cm/mcp-server/internal/auth"
	"github.com/zack-dev-cm/mcp-server/internal/store"
)

// handleGetUserData returns the caller's stored document, or an empty object
// when the session has never stored anything.
func (s *Server) handleGetUserData(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromContext(r.Context())

	value, err := s.userData.GetUserData(r.Context(), token)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	if err != nil {
		s.logger.Error("reading user data failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not read user data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(value)
}

// handlePutUserData replaces the caller's document with the request body.
func (s *Server) handlePutUserData(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromContext(r.Context())

	body, err := readBody(w, r)
	if err != nil {
		return
	}
	if !json.Valid(body) || len(body) == 0 {
		writeError(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	if err := s.userData.PutUserData(r.Context(), token, body); err != nil {
		s.logger.Error("storing user data failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not store user data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

// handleDeleteUserData removes the caller's document. Deleting a document
// that does not exist succeeds.
func (s *Server) handleDeleteUserData(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromContext(r.Context())

	if err := s.userData.DeleteUserData(r.Context(), token); err != nil {
		s.logger.Error("deleting user data failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not delete user data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
