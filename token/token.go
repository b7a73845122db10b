package token

import (
	"time"
)

// Type discriminates what a token may be used for.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
	TypeVerify  Type = "verify"
)

func (t Type) String() string { return string(t) }

// Registered claim names.
const (
	ClaimTokenType = "token_type"
	ClaimSubject   = "sub"
	ClaimIssuer    = "iss"
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
	ClaimJTI       = "jti"
	ClaimUsername  = "username"
)

// Claims is the payload carried by a token.
type Claims map[string]any

// reservedClaims are set by the codec on every encode and never carried over from caller input.
var reservedClaims = map[string]struct{}{
	ClaimTokenType: {},
	ClaimIssuedAt:  {},
	ClaimExpiresAt: {},
	ClaimJTI:       {},
}

// Token is a signed claims bag. It is a value: it does not know how to revoke itself.
type Token struct {
	raw       string
	Type      Type
	JTI       string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    Claims
}

// String returns the compact JWS form of the token.
func (t *Token) String() string {
	return t.raw
}

// Lifetime is the span between issue and expiry.
func (t *Token) Lifetime() time.Duration {
	return t.ExpiresAt.Sub(t.IssuedAt)
}

// Get returns a claim by name.
func (t *Token) Get(name string) (any, bool) {
	v, ok := t.Claims[name]
	return v, ok
}

// GetString returns a string claim, or "" when it is absent or of another type.
func (t *Token) GetString(name string) string {
	s, _ := t.Claims[name].(string)
	return s
}

// Custom returns the claims minus the ones the codec manages.
func (t *Token) Custom() Claims {
	out := make(Claims, len(t.Claims))
	for k, v := range t.Claims {
		if _, reserved := reservedClaims[k]; reserved {
			continue
		}
		out[k] = v
	}
	return out
}
