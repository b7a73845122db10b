package revocation_test

import (
	"context"
	"testing"

	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/jrsteele09/yanssound-auth/token"
	"github.com/jrsteele09/yanssound-auth/token/revocation"
	"github.com/stretchr/testify/require"
)

func TestManager_Introspect(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	access, err := f.codec.Issue(token.Claims{token.ClaimSubject: "alice-id", token.ClaimUsername: "alice"}, token.TypeAccess)
	require.NoError(t, err)

	got, err := f.manager.Introspect(ctx, access.String())
	require.NoError(t, err)
	require.Equal(t, &revocation.Introspection{
		Active:    true,
		TokenType: "access",
		Sub:       "alice-id",
		Username:  "alice",
		Jti:       access.JTI,
		Exp:       access.ExpiresAt.Unix(),
		Iat:       access.IssuedAt.Unix(),
	}, got)

	inactive := &revocation.Introspection{Active: false}

	t.Run("refresh token", func(t *testing.T) {
		got, err := f.manager.Introspect(ctx, f.refresh(t).String())
		require.NoError(t, err)
		require.Equal(t, inactive, got)
	})

	t.Run("garbage", func(t *testing.T) {
		got, err := f.manager.Introspect(ctx, "garbage")
		require.NoError(t, err)
		require.Equal(t, inactive, got)
	})

	t.Run("blacklisted", func(t *testing.T) {
		revoked, err := f.codec.Issue(token.Claims{token.ClaimSubject: "alice-id"}, token.TypeAccess)
		require.NoError(t, err)
		require.NoError(t, f.manager.Blacklist(ctx, revoked))
		got, err := f.manager.Introspect(ctx, revoked.String())
		require.NoError(t, err)
		require.Equal(t, inactive, got)
	})

	t.Run("store unavailable", func(t *testing.T) {
		manager, err := revocation.NewManager(brokenStore{}, f.codec)
		require.NoError(t, err)
		got, err := manager.Introspect(ctx, access.String())
		require.ErrorIs(t, err, autherrors.ErrRevocationStoreUnavailable)
		require.Nil(t, got)
	})

	t.Run("expired", func(t *testing.T) {
		f.clock.Advance(f.codec.Lifetime(token.TypeAccess))
		got, err := f.manager.Introspect(ctx, access.String())
		require.NoError(t, err)
		require.Equal(t, inactive, got)
	})
}
