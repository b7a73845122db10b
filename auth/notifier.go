package auth

import (
	"context"

	"github.com/jrsteele09/yanssound-auth/profiles"
	"github.com/rs/zerolog/log"
)

// VerificationNotifier delivers an email verification token to a profile owner.
type VerificationNotifier interface {
	SendVerification(ctx context.Context, profile *profiles.Profile, verifyToken string) error
}

// LogNotifier writes verification links to the log instead of sending mail. The token itself is only
// logged at debug level.
type LogNotifier struct {
	VerifyURL string
}

var _ VerificationNotifier = LogNotifier{}

func (n LogNotifier) SendVerification(_ context.Context, profile *profiles.Profile, verifyToken string) error {
	log.Info().Str("profile_id", profile.ID).Str("email", profile.Email).Msg("verification email requested")
	log.Debug().Str("profile_id", profile.ID).Str("link", n.VerifyURL+"?token="+verifyToken).Msg("verification link")
	return nil
}
