package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envVar         = "ENV"
	logLevelEnvVar = "LOG_LEVEL"
	baseURLEnvVar  = "BASE_URL"
)

// settings resolves values from the process environment first and an optional .env file second.
var settings = newSettings(".env")

func newSettings(envFile string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig() // .env is optional
	return v
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "YansSound Auth")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

// GetBaseURL is the public URL of the service, used to build links sent to users.
func (EnvVars) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLEnvVar, "http://localhost:8080"), "/")
}

func GetEnv(key, defaultValue string) string {
	value := strings.TrimSpace(settings.GetString(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func GetDuration(key string, defaultValue time.Duration) time.Duration {
	if GetEnv(key, "") == "" {
		return defaultValue
	}
	d := settings.GetDuration(key)
	if d <= 0 {
		return defaultValue
	}
	return d
}

func GetBool(key string, defaultValue bool) bool {
	if GetEnv(key, "") == "" {
		return defaultValue
	}
	return settings.GetBool(key)
}

func GetInt(key string, defaultValue int) int {
	if GetEnv(key, "") == "" {
		return defaultValue
	}
	return settings.GetInt(key)
}
