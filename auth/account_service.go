package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/jrsteele09/yanssound-auth/profiles"
	"github.com/jrsteele09/yanssound-auth/token"
	"github.com/jrsteele09/yanssound-auth/token/revocation"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// AccountService covers registration, email verification and password changes.
type AccountService struct {
	profiles    profiles.Repo
	codec       *token.Codec
	revocations *revocation.Manager
	notifier    VerificationNotifier
	validator   *Validator
	bcryptCost  int
	nowFunc     func() time.Time
}

type AccountServiceOption func(*AccountService)

func WithNotifier(notifier VerificationNotifier) AccountServiceOption {
	return func(a *AccountService) {
		a.notifier = notifier
	}
}

func WithBcryptCost(cost int) AccountServiceOption {
	return func(a *AccountService) {
		a.bcryptCost = cost
	}
}

func WithValidator(validator *Validator) AccountServiceOption {
	return func(a *AccountService) {
		a.validator = validator
	}
}

func WithAccountNowTime(nowFunc func() time.Time) AccountServiceOption {
	return func(a *AccountService) {
		a.nowFunc = nowFunc
	}
}

func NewAccountService(
	repo profiles.Repo,
	codec *token.Codec,
	revocations *revocation.Manager,
	options ...AccountServiceOption,
) (*AccountService, error) {
	if repo == nil {
		return nil, errors.New("[NewAccountService] profiles repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewAccountService] token codec is required")
	}
	if revocations == nil {
		return nil, errors.New("[NewAccountService] revocation manager is required")
	}

	a := &AccountService{
		profiles:    repo,
		codec:       codec,
		revocations: revocations,
		notifier:    LogNotifier{},
		bcryptCost:  bcrypt.DefaultCost,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(a)
	}
	if a.validator == nil {
		a.validator = NewValidator()
	}
	return a, nil
}

// Register creates an unverified profile and sends it a verification token. A notifier failure is
// logged; the profile is still created.
func (a *AccountService) Register(ctx context.Context, req RegistrationRequest) (*profiles.Profile, error) {
	if err := a.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("%w: %w", autherrors.ErrPasswordMismatch,
			autherrors.FieldErrors{"password": "passwords must match"})
	}
	if err := profiles.ValidatePasswordStrength(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", autherrors.ErrWeakPassword, autherrors.FieldErrors{"password": err.Error()})
	}

	hash, err := profiles.HashPassword(req.Password, a.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("[Register] %w", err)
	}
	profile := profiles.New(req.Username, req.Email, hash, a.nowFunc())
	if err := a.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("[Register] %w", err)
	}

	if err := a.sendVerification(ctx, profile); err != nil {
		log.Error().Err(err).Str("profile_id", profile.ID).Msg("failed to send verification email")
	}
	return profile, nil
}

// ResendVerification issues a new verification token. Unknown and already verified addresses succeed
// without sending anything so the endpoint cannot be used to probe for accounts.
func (a *AccountService) ResendVerification(ctx context.Context, req ResendVerificationRequest) error {
	if err := a.validator.ValidateStruct(req); err != nil {
		return err
	}
	profile, err := a.profiles.GetByEmail(ctx, req.Email)
	if errors.Is(err, autherrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("[ResendVerification] %w", err)
	}
	if profile.IsVerified || !profile.IsActive {
		return nil
	}
	if err := a.sendVerification(ctx, profile); err != nil {
		return fmt.Errorf("[ResendVerification] %w", err)
	}
	return nil
}

// VerifyEmail marks the token's profile as verified and then blacklists the token so it works once.
func (a *AccountService) VerifyEmail(ctx context.Context, req EmailVerifyRequest) error {
	if err := a.validator.ValidateStruct(req); err != nil {
		return err
	}
	verify, err := a.revocations.Verify(ctx, req.Token, token.TypeVerify)
	if err != nil {
		return fmt.Errorf("[VerifyEmail] %w", err)
	}
	if err := a.profiles.SetVerified(ctx, verify.Subject, true); err != nil {
		return fmt.Errorf("[VerifyEmail] %w", err)
	}
	if err := a.revocations.Blacklist(ctx, verify); err != nil {
		return fmt.Errorf("[VerifyEmail] %w", err)
	}
	log.Info().Str("profile_id", verify.Subject).Msg("email verified")
	return nil
}

// ChangePassword replaces the password after checking the current one. Tokens already issued stay valid.
func (a *AccountService) ChangePassword(ctx context.Context, profileID string, req PasswordChangeRequest) error {
	if err := a.validator.ValidateStruct(req); err != nil {
		return err
	}
	profile, err := a.profiles.GetByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("[ChangePassword] %w", err)
	}
	if !profiles.CheckPasswordHash(req.OldPassword, profile.PasswordHash) {
		return autherrors.FieldErrors{"old_password": "incorrect password"}
	}
	if req.NewPassword != req.ConfirmNewPassword {
		return fmt.Errorf("%w: %w", autherrors.ErrPasswordMismatch,
			autherrors.FieldErrors{"new_password": "new passwords must match"})
	}
	if err := profiles.ValidatePasswordStrength(req.NewPassword); err != nil {
		return fmt.Errorf("%w: %w", autherrors.ErrWeakPassword, autherrors.FieldErrors{"new_password": err.Error()})
	}

	hash, err := profiles.HashPassword(req.NewPassword, a.bcryptCost)
	if err != nil {
		return fmt.Errorf("[ChangePassword] %w", err)
	}
	if err := a.profiles.UpdatePassword(ctx, profileID, hash); err != nil {
		return fmt.Errorf("[ChangePassword] %w", err)
	}
	log.Info().Str("profile_id", profileID).Msg("password changed")
	return nil
}

// Profile returns the profile with the given id.
func (a *AccountService) Profile(ctx context.Context, profileID string) (*profiles.Profile, error) {
	profile, err := a.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("[Profile] %w", err)
	}
	return profile, nil
}

func (a *AccountService) sendVerification(ctx context.Context, profile *profiles.Profile) error {
	verify, err := a.codec.Issue(token.Claims{
		token.ClaimSubject: profile.ID,
		"email":            profile.Email,
	}, token.TypeVerify)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	return a.notifier.SendVerification(ctx, profile, verify.String())
}
