// ABOUTME: HTTP middleware implementing the two separate authorization schemes.
// ABOUTME: Shared-secret bearer for /mcp routes; per-session tokens for user-data routes.

package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
)

// SessionChecker reports whether a bearer token belongs to an active session.
// Satisfied by *session.Store.
type SessionChecker interface {
	Exists(token string) bool
}

type contextKey string

const tokenKey contextKey = "auth.token"

// WithToken stores the authenticated bearer token in the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the bearer token placed by the middleware, or "".
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}

// RequireSecret gates a route family behind the fixed shared secret. The
// bearer credential must either equal the secret or be a valid HS256 JWT
// signed with it (verifier may be nil to disable the JWT form). The check
// short-circuits before any dispatcher work.
func RequireSecret(secret string, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				unauthorized(w, errMsg)
				return
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1 {
				next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
				return
			}

			if verifier != nil {
				if _, err := verifier.Verify(token); err == nil {
					next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
					return
				}
			}

			unauthorized(w, "invalid credentials")
		})
	}
}

// RequireSession gates the per-user data routes behind session tokens issued
// by initialize. This scheme is entirely separate from the shared-secret
// gate; the two must never cross-authorize.
func RequireSession(sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				unauthorized(w, errMsg)
				return
			}

			if !sessions.Exists(token) {
				unauthorized(w, "unknown session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}
}
