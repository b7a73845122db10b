package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/yanssound-auth/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyProfileID stores the authenticated profile ID
	ContextKeyProfileID ContextKey = "profile_id"
	// ContextKeyAccessToken stores the verified access token
	ContextKeyAccessToken ContextKey = "access_token"
)

// RequireAuth is middleware that validates a Bearer access token, including the blacklist check.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="yanssound"`)
				writeJSONError(w, "unauthorized", "Authentication credentials were not provided.", http.StatusUnauthorized)
				return
			}

			access, err := s.sessions.Authenticate(r.Context(), raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="yanssound", error="invalid_token"`)
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyProfileID, access.Subject)
			ctx = context.WithValue(ctx, ContextKeyAccessToken, access)
			next(w, r.WithContext(ctx))
		}
	}
}

// ProfileIDFromContext returns the subject stored by RequireAuth.
func ProfileIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyProfileID).(string)
	return id, ok && id != ""
}

func AccessTokenFromContext(ctx context.Context) (*token.Token, bool) {
	tok, ok := ctx.Value(ContextKeyAccessToken).(*token.Token)
	return tok, ok
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, raw, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
