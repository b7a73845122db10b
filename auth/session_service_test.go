package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/yanssound-auth/auth"
	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/jrsteele09/yanssound-auth/token"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	alice := f.addAlice(t)

	for _, identifier := range []string{aliceUsername, aliceEmail} {
		t.Run(identifier, func(t *testing.T) {
			session, err := f.sessions.Login(ctx, identifier, alicePassword)
			require.NoError(t, err)
			require.NotNil(t, session.Access)
			require.NotNil(t, session.Refresh)
			require.Equal(t, alice.ID, session.Profile.ID)
			require.Equal(t, aliceUsername, session.Profile.Username)

			require.Equal(t, token.TypeRefresh, session.Refresh.Type)
			require.Equal(t, alice.ID, session.Refresh.Subject)
			require.Equal(t, aliceUsername, session.Refresh.GetString(token.ClaimUsername))
			require.Equal(t, refreshLifetime, session.Refresh.Lifetime())

			access, err := f.codec.Decode(session.Access.String(), token.TypeAccess)
			require.NoError(t, err)
			require.Equal(t, alice.ID, access.Subject)
			require.Equal(t, aliceUsername, access.GetString(token.ClaimUsername))
			require.Equal(t, accessLifetime, access.Lifetime())
			require.NotEqual(t, session.Refresh.JTI, access.JTI)
		})
	}

	stored, err := f.repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	require.True(t, stored.LastLogin.Equal(f.clock.Now()))
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addAlice(t)
	inactive := f.addProfile(t, "bob", "bob@x.com", "bob-pw")
	require.NoError(t, f.repo.SetActive(ctx, inactive.ID, false))

	attempts := [][2]string{
		{"nobody", alicePassword},
		{"nobody@x.com", alicePassword},
		{aliceUsername, "wrong"},
		{aliceEmail, "wrong"},
		{"bob", "bob-pw"},
	}
	var messages []string
	for _, attempt := range attempts {
		session, err := f.sessions.Login(ctx, attempt[0], attempt[1])
		require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
		require.Nil(t, session)
		messages = append(messages, err.Error())
	}
	for _, msg := range messages[1:] {
		require.Equal(t, messages[0], msg)
	}
}

func TestLogin_LastLoginFailureIsTolerated(t *testing.T) {
	f := setupTestFixture(t)
	f.addAlice(t)
	f.repo.FailUpdateLastLogin = errors.New("disk full")

	session, err := f.sessions.Login(context.Background(), aliceUsername, alicePassword)
	require.NoError(t, err)
	require.NotNil(t, session.Refresh)
}

func TestRefresh_RotationBlacklistsPresentedToken(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	alice := f.addAlice(t)

	login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	rotated, err := f.sessions.Refresh(ctx, login.Refresh.String())
	require.NoError(t, err)
	require.NotNil(t, rotated.Access)
	require.NotNil(t, rotated.Refresh)
	require.NotEqual(t, login.Refresh.JTI, rotated.Refresh.JTI)
	require.Equal(t, alice.ID, rotated.Refresh.Subject)
	require.Equal(t, aliceUsername, rotated.Refresh.GetString(token.ClaimUsername))
	require.Equal(t, alice.ID, rotated.Access.Subject)
	require.True(t, rotated.Refresh.ExpiresAt.After(login.Refresh.ExpiresAt))

	blacklisted, err := f.revocations.IsBlacklisted(ctx, login.Refresh.JTI)
	require.NoError(t, err)
	require.True(t, blacklisted)

	_, err = f.sessions.Refresh(ctx, login.Refresh.String())
	require.ErrorIs(t, err, autherrors.ErrTokenBlacklisted)

	again, err := f.sessions.Refresh(ctx, rotated.Refresh.String())
	require.NoError(t, err)
	require.NotNil(t, again.Refresh)
}

func TestRefresh_WithoutRotation(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, auth.WithRotation(false, true))
	f.addAlice(t)

	login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.NoError(t, err)

	for range 3 {
		session, err := f.sessions.Refresh(ctx, login.Refresh.String())
		require.NoError(t, err)
		require.NotNil(t, session.Access)
		require.Nil(t, session.Refresh)
	}
	require.Zero(t, f.store.Len())
}

func TestRefresh_RotationWithoutBlacklist(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, auth.WithRotation(true, false))
	f.addAlice(t)

	login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.NoError(t, err)

	first, err := f.sessions.Refresh(ctx, login.Refresh.String())
	require.NoError(t, err)
	require.NotNil(t, first.Refresh)

	second, err := f.sessions.Refresh(ctx, login.Refresh.String())
	require.NoError(t, err)
	require.NotNil(t, second.Refresh)
}

func TestRefresh_Rejections(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addAlice(t)

	login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.NoError(t, err)

	t.Run("access token", func(t *testing.T) {
		_, err := f.sessions.Refresh(ctx, login.Access.String())
		require.ErrorIs(t, err, autherrors.ErrTokenWrongType)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := f.sessions.Refresh(ctx, "not-a-token")
		require.ErrorIs(t, err, autherrors.ErrTokenMalformed)
	})

	t.Run("expired", func(t *testing.T) {
		f.clock.Advance(refreshLifetime)
		_, err := f.sessions.Refresh(ctx, login.Refresh.String())
		require.ErrorIs(t, err, autherrors.ErrTokenExpired)
	})
}

func TestRefresh_StoreUnavailableReturnsNoTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("blacklist lookup fails", func(t *testing.T) {
		f := setupTestFixture(t)
		f.addAlice(t)
		login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
		require.NoError(t, err)

		f.store.failGet.Store(true)
		session, err := f.sessions.Refresh(ctx, login.Refresh.String())
		require.ErrorIs(t, err, autherrors.ErrRevocationStoreUnavailable)
		require.Nil(t, session)
	})

	t.Run("blacklisting the rotated token fails", func(t *testing.T) {
		f := setupTestFixture(t)
		f.addAlice(t)
		login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
		require.NoError(t, err)

		f.store.failSet.Store(true)
		session, err := f.sessions.Refresh(ctx, login.Refresh.String())
		require.ErrorIs(t, err, autherrors.ErrRevocationStoreUnavailable)
		require.Nil(t, session)

		// The presented token was never revoked, so it can be retried once the store recovers.
		f.store.failSet.Store(false)
		session, err = f.sessions.Refresh(ctx, login.Refresh.String())
		require.NoError(t, err)
		require.NotNil(t, session.Refresh)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addAlice(t)

	login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.NoError(t, err)

	require.NoError(t, f.sessions.Logout(ctx, login.Refresh.String()))
	require.NoError(t, f.sessions.Logout(ctx, login.Refresh.String()))
	require.Equal(t, 1, f.store.Len())

	_, err = f.sessions.Refresh(ctx, login.Refresh.String())
	require.ErrorIs(t, err, autherrors.ErrTokenBlacklisted)

	// Logging out does not touch the access token; it lives out its short lifetime.
	_, err = f.sessions.Authenticate(ctx, login.Access.String())
	require.NoError(t, err)
}

func TestLogout_Rejections(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addAlice(t)

	login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.NoError(t, err)

	err = f.sessions.Logout(ctx, login.Access.String())
	require.ErrorIs(t, err, autherrors.ErrTokenWrongType)

	err = f.sessions.Logout(ctx, "")
	require.ErrorIs(t, err, autherrors.ErrTokenMalformed)

	f.store.Down()
	err = f.sessions.Logout(ctx, login.Refresh.String())
	require.ErrorIs(t, err, autherrors.ErrRevocationStoreUnavailable)

	f.store.failGet.Store(false)
	f.store.failSet.Store(false)
	f.clock.Advance(refreshLifetime + time.Second)
	err = f.sessions.Logout(ctx, login.Refresh.String())
	require.ErrorIs(t, err, autherrors.ErrTokenExpired)
	require.Zero(t, f.store.Len())
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	alice := f.addAlice(t)

	login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.NoError(t, err)

	access, err := f.sessions.Authenticate(ctx, login.Access.String())
	require.NoError(t, err)
	require.Equal(t, alice.ID, access.Subject)

	_, err = f.sessions.Authenticate(ctx, login.Refresh.String())
	require.ErrorIs(t, err, autherrors.ErrTokenWrongType)

	t.Run("store unavailable fails closed", func(t *testing.T) {
		f.store.failGet.Store(true)
		defer f.store.failGet.Store(false)
		_, err := f.sessions.Authenticate(ctx, login.Access.String())
		require.ErrorIs(t, err, autherrors.ErrRevocationStoreUnavailable)
	})

	t.Run("missing subject", func(t *testing.T) {
		anonymous, err := f.codec.Issue(token.Claims{}, token.TypeAccess)
		require.NoError(t, err)
		_, err = f.sessions.Authenticate(ctx, anonymous.String())
		require.ErrorIs(t, err, autherrors.ErrTokenMalformed)
	})

	t.Run("revoked", func(t *testing.T) {
		require.NoError(t, f.sessions.RevokeAccess(ctx, access))
		_, err := f.sessions.Authenticate(ctx, login.Access.String())
		require.ErrorIs(t, err, autherrors.ErrTokenBlacklisted)
	})

	t.Run("expired", func(t *testing.T) {
		fresh, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
		require.NoError(t, err)
		f.clock.Advance(accessLifetime)
		_, err = f.sessions.Authenticate(ctx, fresh.Access.String())
		require.ErrorIs(t, err, autherrors.ErrTokenExpired)
	})
}

func TestIntrospect(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	alice := f.addAlice(t)

	login, err := f.sessions.Login(ctx, aliceUsername, alicePassword)
	require.NoError(t, err)

	got, err := f.sessions.Introspect(ctx, login.Access.String())
	require.NoError(t, err)
	require.True(t, got.Active)
	require.Equal(t, alice.ID, got.Sub)

	require.NoError(t, f.sessions.RevokeAccess(ctx, login.Access))
	got, err = f.sessions.Introspect(ctx, login.Access.String())
	require.NoError(t, err)
	require.False(t, got.Active)

	f.store.failGet.Store(true)
	_, err = f.sessions.Introspect(ctx, login.Access.String())
	require.ErrorIs(t, err, autherrors.ErrRevocationStoreUnavailable)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	alice := f.addAlice(t)

	// Login returns a pair for alice.
	login, err := f.sessions.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	a1, r1 := login.Access, login.Refresh
	require.Equal(t, alice.ID, a1.Subject)

	// Refreshing with r1 rotates it out.
	f.clock.Advance(2 * time.Minute)
	rotated, err := f.sessions.Refresh(ctx, r1.String())
	require.NoError(t, err)
	r2 := rotated.Refresh
	require.NotNil(t, r2)

	_, err = f.sessions.Refresh(ctx, r1.String())
	require.ErrorIs(t, err, autherrors.ErrTokenBlacklisted)

	// Logout with r2 ends the session.
	require.NoError(t, f.sessions.Logout(ctx, r2.String()))
	_, err = f.sessions.Refresh(ctx, r2.String())
	require.ErrorIs(t, err, autherrors.ErrTokenBlacklisted)

	// Once the blacklisted tokens expire their entries are gone and expiry is reported instead.
	f.clock.Advance(refreshLifetime + time.Minute)
	require.Equal(t, 2, f.store.Cleanup())
	require.Zero(t, f.store.Len())
	_, err = f.sessions.Refresh(ctx, r2.String())
	require.ErrorIs(t, err, autherrors.ErrTokenExpired)
}
