package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/yanssound-auth/auth"
	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/jrsteele09/yanssound-auth/token"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Tr0ubadour"

func validRegistration() auth.RegistrationRequest {
	return auth.RegistrationRequest{
		Email:           "Dave@Example.COM",
		Username:        "dave",
		Password:        strongPassword,
		ConfirmPassword: strongPassword,
	}
}

func TestRegister_ThenVerifyEmail(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	profile, err := f.accounts.Register(ctx, validRegistration())
	require.NoError(t, err)
	require.Equal(t, "dave", profile.Username)
	require.Equal(t, "Dave@example.com", profile.Email)
	require.True(t, profile.IsActive)
	require.False(t, profile.IsVerified)
	require.NotEqual(t, strongPassword, profile.PasswordHash)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, profile.ID, sent[0].profileID)

	verify, err := f.codec.Decode(sent[0].token, token.TypeVerify)
	require.NoError(t, err)
	require.Equal(t, profile.ID, verify.Subject)
	require.Equal(t, "Dave@example.com", verify.GetString("email"))

	// The new profile can log in before verifying.
	_, err = f.sessions.Login(ctx, "dave@example.com", strongPassword)
	require.NoError(t, err)

	require.NoError(t, f.accounts.VerifyEmail(ctx, auth.EmailVerifyRequest{Token: sent[0].token}))
	stored, err := f.accounts.Profile(ctx, profile.ID)
	require.NoError(t, err)
	require.True(t, stored.IsVerified)

	err = f.accounts.VerifyEmail(ctx, auth.EmailVerifyRequest{Token: sent[0].token})
	require.ErrorIs(t, err, autherrors.ErrTokenBlacklisted)
}

func TestRegister_Rejections(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addAlice(t)

	tests := []struct {
		name      string
		mutate    func(*auth.RegistrationRequest)
		wantErr   error
		wantField string
	}{
		{
			name:      "missing email",
			mutate:    func(r *auth.RegistrationRequest) { r.Email = "" },
			wantErr:   autherrors.ErrValidation,
			wantField: "email",
		},
		{
			name:      "malformed email",
			mutate:    func(r *auth.RegistrationRequest) { r.Email = "dave-at-example" },
			wantErr:   autherrors.ErrValidation,
			wantField: "email",
		},
		{
			name:      "username that is an email",
			mutate:    func(r *auth.RegistrationRequest) { r.Username = "dave@example.com" },
			wantErr:   autherrors.ErrValidation,
			wantField: "username",
		},
		{
			name:      "missing confirmation",
			mutate:    func(r *auth.RegistrationRequest) { r.ConfirmPassword = "" },
			wantErr:   autherrors.ErrValidation,
			wantField: "confirm_password",
		},
		{
			name:      "passwords differ",
			mutate:    func(r *auth.RegistrationRequest) { r.ConfirmPassword = strongPassword + "x" },
			wantErr:   autherrors.ErrPasswordMismatch,
			wantField: "password",
		},
		{
			name: "weak password",
			mutate: func(r *auth.RegistrationRequest) {
				r.Password = "password"
				r.ConfirmPassword = "password"
			},
			wantErr:   autherrors.ErrWeakPassword,
			wantField: "password",
		},
		{
			name:    "duplicate username",
			mutate:  func(r *auth.RegistrationRequest) { r.Username = aliceUsername },
			wantErr: autherrors.ErrAlreadyExists,
		},
		{
			name:    "duplicate email in another case",
			mutate:  func(r *auth.RegistrationRequest) { r.Email = "ALICE@x.com" },
			wantErr: autherrors.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)

			profile, err := f.accounts.Register(ctx, req)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, profile)

			if tt.wantField != "" {
				var fields autherrors.FieldErrors
				require.ErrorAs(t, err, &fields)
				require.Contains(t, fields, tt.wantField)
			}
		})
	}
	require.Empty(t, f.notifier.Sent())
}

func TestRegister_NotifierFailureStillCreatesProfile(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.notifier.err = errors.New("smtp timeout")

	profile, err := f.accounts.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = f.repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
}

func TestResendVerification(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	profile, err := f.accounts.Register(ctx, validRegistration())
	require.NoError(t, err)
	require.Len(t, f.notifier.Sent(), 1)

	require.NoError(t, f.accounts.ResendVerification(ctx, auth.ResendVerificationRequest{Email: "dave@example.com"}))
	sent := f.notifier.Sent()
	require.Len(t, sent, 2)
	require.NotEqual(t, sent[0].token, sent[1].token)

	// Unknown addresses look the same as known ones.
	require.NoError(t, f.accounts.ResendVerification(ctx, auth.ResendVerificationRequest{Email: "nobody@example.com"}))
	require.Len(t, f.notifier.Sent(), 2)

	require.NoError(t, f.accounts.VerifyEmail(ctx, auth.EmailVerifyRequest{Token: sent[1].token}))
	require.NoError(t, f.accounts.ResendVerification(ctx, auth.ResendVerificationRequest{Email: "dave@example.com"}))
	require.Len(t, f.notifier.Sent(), 2)

	// Either token verified the profile; the older one is still unused.
	require.NoError(t, f.accounts.VerifyEmail(ctx, auth.EmailVerifyRequest{Token: sent[0].token}))
	stored, err := f.repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	require.True(t, stored.IsVerified)

	err = f.accounts.ResendVerification(ctx, auth.ResendVerificationRequest{Email: "not-an-email"})
	require.ErrorIs(t, err, autherrors.ErrValidation)
}

func TestVerifyEmail_Rejections(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addAlice(t)

	login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.NoError(t, err)

	err = f.accounts.VerifyEmail(ctx, auth.EmailVerifyRequest{})
	require.ErrorIs(t, err, autherrors.ErrValidation)

	err = f.accounts.VerifyEmail(ctx, auth.EmailVerifyRequest{Token: login.Access.String()})
	require.ErrorIs(t, err, autherrors.ErrTokenWrongType)

	_, err = f.accounts.Register(ctx, validRegistration())
	require.NoError(t, err)
	verifyToken := f.notifier.Sent()[0].token

	f.clock.Advance(f.codec.Lifetime(token.TypeVerify))
	err = f.accounts.VerifyEmail(ctx, auth.EmailVerifyRequest{Token: verifyToken})
	require.ErrorIs(t, err, autherrors.ErrTokenExpired)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	alice := f.addAlice(t)

	login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.NoError(t, err)

	t.Run("wrong old password", func(t *testing.T) {
		err := f.accounts.ChangePassword(ctx, alice.ID, auth.PasswordChangeRequest{
			OldPassword: "wrong", NewPassword: strongPassword, ConfirmNewPassword: strongPassword,
		})
		require.ErrorIs(t, err, autherrors.ErrValidation)
		var fields autherrors.FieldErrors
		require.ErrorAs(t, err, &fields)
		require.Contains(t, fields, "old_password")
	})

	t.Run("mismatch", func(t *testing.T) {
		err := f.accounts.ChangePassword(ctx, alice.ID, auth.PasswordChangeRequest{
			OldPassword: alicePassword, NewPassword: strongPassword, ConfirmNewPassword: "Different1",
		})
		require.ErrorIs(t, err, autherrors.ErrPasswordMismatch)
	})

	t.Run("weak", func(t *testing.T) {
		err := f.accounts.ChangePassword(ctx, alice.ID, auth.PasswordChangeRequest{
			OldPassword: alicePassword, NewPassword: "short", ConfirmNewPassword: "short",
		})
		require.ErrorIs(t, err, autherrors.ErrWeakPassword)
	})

	t.Run("unknown profile", func(t *testing.T) {
		err := f.accounts.ChangePassword(ctx, "missing", auth.PasswordChangeRequest{
			OldPassword: alicePassword, NewPassword: strongPassword, ConfirmNewPassword: strongPassword,
		})
		require.ErrorIs(t, err, autherrors.ErrNotFound)
	})

	require.NoError(t, f.accounts.ChangePassword(ctx, alice.ID, auth.PasswordChangeRequest{
		OldPassword: alicePassword, NewPassword: strongPassword, ConfirmNewPassword: strongPassword,
	}))

	_, err = f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	_, err = f.sessions.Login(ctx, aliceUsername, strongPassword)
	require.NoError(t, err)

	// Existing sessions survive a password change.
	_, err = f.sessions.Refresh(ctx, login.Refresh.String())
	require.NoError(t, err)
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	alice := f.addAlice(t)

	got, err := f.accounts.Profile(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, aliceUsername, got.Username)
	require.Equal(t, aliceEmail, got.Email)

	_, err = f.accounts.Profile(ctx, "missing")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
}
