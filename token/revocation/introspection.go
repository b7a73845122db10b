package revocation

import (
	"context"
	"errors"

	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/jrsteele09/yanssound-auth/token"
)

// Introspection represents the metadata of an access token in the shape of an OAuth 2.0 introspection
// response. When Active is false no other field is populated.
type Introspection struct {
	Active    bool   `json:"active"`               // True when the token is a live, non-blacklisted access token
	TokenType string `json:"token_type,omitempty"` // Always "access" when active
	Sub       string `json:"sub,omitempty"`        // Profile ID
	Username  string `json:"username,omitempty"`   // Username at issue time
	Iss       string `json:"iss,omitempty"`        // Issuer, when one is configured
	Jti       string `json:"jti,omitempty"`        // Token ID
	Exp       int64  `json:"exp,omitempty"`        // Expiration
	Iat       int64  `json:"iat,omitempty"`        // Issued at time
}

// Introspect reports whether raw is a live access token. Every token error results in an inactive
// answer; only an unreachable store is returned as an error because then the answer is unknown.
func (m *Manager) Introspect(ctx context.Context, raw string) (*Introspection, error) {
	tok, err := m.Verify(ctx, raw, token.TypeAccess)
	if errors.Is(err, autherrors.ErrRevocationStoreUnavailable) {
		return nil, err
	}
	if err != nil {
		return &Introspection{Active: false}, nil
	}

	out := &Introspection{
		Active:    true,
		TokenType: tok.Type.String(),
		Sub:       tok.Subject,
		Username:  tok.GetString(token.ClaimUsername),
		Iss:       tok.GetString(token.ClaimIssuer),
		Jti:       tok.JTI,
		Exp:       tok.ExpiresAt.Unix(),
	}
	if !tok.IssuedAt.IsZero() {
		out.Iat = tok.IssuedAt.Unix()
	}
	return out, nil
}
