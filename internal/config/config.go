package config

import (
	"fmt"
	"strings"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	StoreConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBaseURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Stores
	Security
}

func New() Config {
	return mainConfig{}
}

// Validate checks the settings the service cannot start without.
func Validate(c Config) error {
	var problems []string
	if c.GetSigningKey() == "" && c.GetPrivateKeyPEM() == "" {
		problems = append(problems, "one of JWT_SIGNING_KEY or JWT_PRIVATE_KEY_PEM must be set")
	}
	if c.GetAccessTokenLifetime() <= 0 {
		problems = append(problems, "ACCESS_TOKEN_LIFETIME must be positive")
	}
	if c.GetRefreshTokenLifetime() <= c.GetAccessTokenLifetime() {
		problems = append(problems, "REFRESH_TOKEN_LIFETIME must be longer than ACCESS_TOKEN_LIFETIME")
	}
	switch c.GetDatabaseDriver() {
	case DriverSQLite, DriverPostgres:
	default:
		problems = append(problems, fmt.Sprintf("unsupported DATABASE_DRIVER %q", c.GetDatabaseDriver()))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
