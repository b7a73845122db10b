package config

import "time"

type TokenConfig interface {
	GetSigningKey() string
	GetPrivateKeyPEM() string
	GetKeyID() string
	GetIssuer() string
	GetAccessTokenLifetime() time.Duration
	GetRefreshTokenLifetime() time.Duration
	GetVerifyTokenLifetime() time.Duration
	GetRotateRefreshTokens() bool
	GetBlacklistAfterRotation() bool
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

func (Tokens) GetSigningKey() string {
	return GetEnv("JWT_SIGNING_KEY", "")
}

func (Tokens) GetPrivateKeyPEM() string {
	return GetEnv("JWT_PRIVATE_KEY_PEM", "")
}

func (Tokens) GetKeyID() string {
	return GetEnv("JWT_KEY_ID", "yanssound-1")
}

func (Tokens) GetIssuer() string {
	return GetEnv("JWT_ISSUER", "")
}

func (Tokens) GetAccessTokenLifetime() time.Duration {
	return GetDuration("ACCESS_TOKEN_LIFETIME", 5*time.Minute)
}

func (Tokens) GetRefreshTokenLifetime() time.Duration {
	return GetDuration("REFRESH_TOKEN_LIFETIME", 24*time.Hour)
}

// GetVerifyTokenLifetime defaults to the access token lifetime.
func (t Tokens) GetVerifyTokenLifetime() time.Duration {
	return GetDuration("VERIFY_TOKEN_LIFETIME", t.GetAccessTokenLifetime())
}

func (Tokens) GetRotateRefreshTokens() bool {
	return GetBool("ROTATE_REFRESH_TOKENS", true)
}

func (Tokens) GetBlacklistAfterRotation() bool {
	return GetBool("BLACKLIST_AFTER_ROTATION", true)
}
