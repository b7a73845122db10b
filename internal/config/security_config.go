package config

import "golang.org/x/crypto/bcrypt"

type SecurityConfig interface {
	GetBcryptCost() int
	GetMaxRequestBytes() int64
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetBcryptCost() int {
	cost := GetInt("BCRYPT_COST", bcrypt.DefaultCost)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}

func (Security) GetMaxRequestBytes() int64 {
	return int64(GetInt("MAX_REQUEST_BYTES", 1<<20))
}
