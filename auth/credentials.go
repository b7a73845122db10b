package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/jrsteele09/yanssound-auth/profiles"
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier resolves a login identifier to a profile and checks its password.
type CredentialVerifier struct {
	profiles  profiles.Repo
	validator *Validator
}

func NewCredentialVerifier(repo profiles.Repo, validator *Validator) (*CredentialVerifier, error) {
	if repo == nil {
		return nil, errors.New("[NewCredentialVerifier] profiles repo is required")
	}
	if validator == nil {
		validator = NewValidator()
	}
	return &CredentialVerifier{profiles: repo, validator: validator}, nil
}

// dummyHash is compared against when no profile matches so that a miss costs as much as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("yanssound-no-such-profile"), bcrypt.DefaultCost)
	return hash
})

// Verify returns the matching profile and true, or false when nothing matches. An unknown identifier,
// a wrong password and an inactive profile are indistinguishable. An identifier that is a well formed
// email is only ever looked up by email; anything else only by username. Errors are infrastructure
// failures from the repository.
func (v *CredentialVerifier) Verify(ctx context.Context, identifier, password string) (*profiles.Profile, bool, error) {
	if identifier == "" || password == "" {
		return nil, false, nil
	}

	profile, err := v.lookup(ctx, identifier)
	if errors.Is(err, autherrors.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("[CredentialVerifier.Verify] %w", err)
	}

	if !profiles.CheckPasswordHash(password, profile.PasswordHash) || !profile.IsActive {
		return nil, false, nil
	}
	return profile, true, nil
}

func (v *CredentialVerifier) lookup(ctx context.Context, identifier string) (*profiles.Profile, error) {
	if v.validator.IsEmail(identifier) {
		return v.profiles.GetByEmail(ctx, identifier)
	}
	return v.profiles.GetByUsername(ctx, identifier)
}
