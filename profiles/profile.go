package profiles

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Profile is a YansSound account. Profiles are never deleted; IsActive=false disables one.
type Profile struct {
	ID           string     `json:"id"`                   // Unique identifier (UUID)
	Username     string     `json:"username"`             // Unique username
	Email        string     `json:"email"`                // Unique email, domain lowercased
	PasswordHash string     `json:"-"`                    // bcrypt hash - never serialize
	Biography    string     `json:"biography,omitempty"`  // Free text shown on the profile page
	IsActive     bool       `json:"is_active"`            // Disabled profiles cannot log in
	IsArtist     bool       `json:"is_artist"`            // Can publish songs
	IsVerified   bool       `json:"is_verified"`          // Email address confirmed
	IsStaff      bool       `json:"is_staff"`             // Moderation permissions
	DateJoined   time.Time  `json:"date_joined"`          // Registration time
	LastLogin    *time.Time `json:"last_login,omitempty"` // Last successful login
}

// Summary is the part of a profile handed back alongside a fresh token pair.
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (p *Profile) Summary() Summary {
	return Summary{ID: p.ID, Username: p.Username}
}

// New builds an active, unverified profile with a fresh id.
func New(username, email, passwordHash string, joined time.Time) *Profile {
	return &Profile{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		IsActive:     true,
		DateJoined:   joined.UTC(),
	}
}

// NormalizeEmail lowercases the domain part and trims surrounding space. The local part is kept as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares in constant time.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
