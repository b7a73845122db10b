package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/jrsteele09/yanssound-auth/token/keys"
)

const (
	defaultAccessLifetime  = 5 * time.Minute
	defaultRefreshLifetime = 24 * time.Hour
)

// Codec encodes claims into signed tokens and decodes them back.
type Codec struct {
	signer    keys.Signer
	issuer    string
	lifetimes map[Type]time.Duration
	nowFunc   func() time.Time
	jtiFunc   func() string
}

type CodecOption func(*Codec)

// WithLifetime sets the lifetime used by Issue for the given token type.
func WithLifetime(typ Type, lifetime time.Duration) CodecOption {
	return func(c *Codec) {
		c.lifetimes[typ] = lifetime
	}
}

func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// WithJTIFunc replaces the jti generator. The default is a random UUIDv4.
func WithJTIFunc(f func() string) CodecOption {
	return func(c *Codec) {
		c.jtiFunc = f
	}
}

func NewCodec(signer keys.Signer, options ...CodecOption) (*Codec, error) {
	if signer == nil {
		return nil, errors.New("[NewCodec] signer is required")
	}
	c := &Codec{
		signer:    signer,
		lifetimes: make(map[Type]time.Duration),
		nowFunc:   time.Now,
		jtiFunc:   uuid.NewString,
	}
	for _, opt := range options {
		opt(c)
	}

	if c.lifetimes[TypeAccess] <= 0 {
		c.lifetimes[TypeAccess] = defaultAccessLifetime
	}
	if c.lifetimes[TypeRefresh] <= 0 {
		c.lifetimes[TypeRefresh] = defaultRefreshLifetime
	}
	if c.lifetimes[TypeVerify] <= 0 {
		c.lifetimes[TypeVerify] = c.lifetimes[TypeAccess]
	}
	return c, nil
}

// Lifetime returns the configured lifetime for typ, or zero if none is configured.
func (c *Codec) Lifetime(typ Type) time.Duration {
	return c.lifetimes[typ]
}

// Issue encodes claims with the configured lifetime for typ.
func (c *Codec) Issue(claims Claims, typ Type) (*Token, error) {
	lifetime := c.Lifetime(typ)
	if lifetime <= 0 {
		return nil, fmt.Errorf("[Codec.Issue] no lifetime configured for token type %q", typ)
	}
	return c.Encode(claims, typ, lifetime)
}

// Encode signs claims plus token_type, iat, exp and a fresh jti. Timestamps have whole second resolution.
func (c *Codec) Encode(claims Claims, typ Type, lifetime time.Duration) (*Token, error) {
	if typ == "" {
		return nil, errors.New("[Codec.Encode] token type is required")
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("[Codec.Encode] lifetime must be positive, got %s", lifetime)
	}

	issuedAt := c.nowFunc().Truncate(time.Second)
	expiresAt := issuedAt.Add(lifetime)

	mapClaims := make(jwt.MapClaims, len(claims)+5)
	for k, v := range claims {
		mapClaims[k] = v
	}
	if _, ok := mapClaims[ClaimIssuer]; !ok && c.issuer != "" {
		mapClaims[ClaimIssuer] = c.issuer
	}
	jti := c.jtiFunc()
	mapClaims[ClaimTokenType] = string(typ)
	mapClaims[ClaimIssuedAt] = issuedAt.Unix()
	mapClaims[ClaimExpiresAt] = expiresAt.Unix()
	mapClaims[ClaimJTI] = jti

	raw, err := c.signer.Sign(mapClaims)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}

	subject, _ := mapClaims[ClaimSubject].(string)
	return &Token{
		raw:       raw,
		Type:      typ,
		JTI:       jti,
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Claims:    Claims(mapClaims),
	}, nil
}

// Decode checks the signature, then expiry, then the token type. Only the signer's own
// algorithm is accepted.
func (c *Codec) Decode(raw string, expected Type) (*Token, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", autherrors.ErrTokenMalformed)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.ParseWithClaims(raw, jwt.MapClaims{}, c.signer.GetVerificationKey)
	if err != nil {
		return nil, classifyParseError(err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type %T", autherrors.ErrTokenMalformed, parsed.Claims)
	}

	tok, err := tokenFromClaims(raw, mapClaims)
	if err != nil {
		return nil, err
	}
	if tok.Type != expected {
		return nil, fmt.Errorf("%w: expected %q, got %q", autherrors.ErrTokenWrongType, expected, tok.Type)
	}
	return tok, nil
}

// AccessFromRefresh derives a fresh access token from a decoded refresh token. Every claim except
// token_type, exp, jti and iat is copied. The revocation store is not consulted.
func (c *Codec) AccessFromRefresh(refresh *Token) (*Token, error) {
	if refresh == nil {
		return nil, fmt.Errorf("%w: no refresh token", autherrors.ErrTokenMalformed)
	}
	if refresh.Type != TypeRefresh {
		return nil, fmt.Errorf("%w: expected %q, got %q", autherrors.ErrTokenWrongType, TypeRefresh, refresh.Type)
	}
	return c.Issue(refresh.Custom(), TypeAccess)
}

func tokenFromClaims(raw string, mapClaims jwt.MapClaims) (*Token, error) {
	jti, _ := mapClaims[ClaimJTI].(string)
	if jti == "" {
		return nil, fmt.Errorf("%w: missing %s claim", autherrors.ErrTokenMalformed, ClaimJTI)
	}
	typ, _ := mapClaims[ClaimTokenType].(string)
	if typ == "" {
		return nil, fmt.Errorf("%w: missing %s claim", autherrors.ErrTokenMalformed, ClaimTokenType)
	}
	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: invalid %s claim", autherrors.ErrTokenMalformed, ClaimExpiresAt)
	}
	iat, err := mapClaims.GetIssuedAt()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s claim", autherrors.ErrTokenMalformed, ClaimIssuedAt)
	}
	subject, _ := mapClaims[ClaimSubject].(string)

	tok := &Token{
		raw:       raw,
		Type:      Type(typ),
		JTI:       jti,
		Subject:   subject,
		ExpiresAt: exp.Time,
		Claims:    Claims(mapClaims),
	}
	if iat != nil {
		tok.IssuedAt = iat.Time
	}
	return tok, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", autherrors.ErrTokenInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", autherrors.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", autherrors.ErrTokenMalformed, err)
	}
}
