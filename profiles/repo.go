package profiles

import (
	"context"
	"time"
)

// Repo stores profiles. Lookups that find nothing return errors.ErrNotFound; creating a profile whose
// username or email is taken returns errors.ErrAlreadyExists.
type Repo interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetVerified(ctx context.Context, id string, verified bool) error
	SetActive(ctx context.Context, id string, active bool) error
}
