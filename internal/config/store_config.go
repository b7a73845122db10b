package config

import "time"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type StoreConfig interface {
	GetDatabaseDriver() string
	GetDatabaseURL() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetBlacklistKeyPrefix() string
	GetRevocationStoreTimeout() time.Duration
}

type Stores struct{}

var _ StoreConfig = Stores{}

func (Stores) GetDatabaseDriver() string {
	return GetEnv("DATABASE_DRIVER", DriverSQLite)
}

func (Stores) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "./data/yanssound.db")
}

// GetRedisAddr returns an empty string when no Redis is configured; the in-process store is used instead.
func (Stores) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (Stores) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Stores) GetRedisDB() int {
	return GetInt("REDIS_DB", 0)
}

func (Stores) GetBlacklistKeyPrefix() string {
	return GetEnv("BLACKLIST_KEY_PREFIX", "blacklist:")
}

func (Stores) GetRevocationStoreTimeout() time.Duration {
	return GetDuration("REVOCATION_STORE_TIMEOUT", 2*time.Second)
}
