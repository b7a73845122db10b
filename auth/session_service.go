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
)

// Session is what a successful login or refresh hands back to the client.
type Session struct {
	Access  *token.Token
	Refresh *token.Token     // nil after a refresh when rotation is disabled
	Profile profiles.Summary // set on login only
}

// SessionService issues, refreshes and revokes token pairs.
type SessionService struct {
	profiles               profiles.Repo
	verifier               *CredentialVerifier
	codec                  *token.Codec
	revocations            *revocation.Manager
	rotateRefreshTokens    bool
	blacklistAfterRotation bool
	nowFunc                func() time.Time
}

type SessionServiceOption func(*SessionService)

// WithRotation controls whether refresh issues a new refresh token and whether the old one is then
// blacklisted. blacklistAfter has no effect without rotate.
func WithRotation(rotate, blacklistAfter bool) SessionServiceOption {
	return func(s *SessionService) {
		s.rotateRefreshTokens = rotate
		s.blacklistAfterRotation = blacklistAfter
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		s.nowFunc = nowFunc
	}
}

func NewSessionService(
	repo profiles.Repo,
	verifier *CredentialVerifier,
	codec *token.Codec,
	revocations *revocation.Manager,
	options ...SessionServiceOption,
) (*SessionService, error) {
	if repo == nil {
		return nil, errors.New("[NewSessionService] profiles repo is required")
	}
	if verifier == nil {
		return nil, errors.New("[NewSessionService] credential verifier is required")
	}
	if codec == nil {
		return nil, errors.New("[NewSessionService] token codec is required")
	}
	if revocations == nil {
		return nil, errors.New("[NewSessionService] revocation manager is required")
	}

	s := &SessionService{
		profiles:               repo,
		verifier:               verifier,
		codec:                  codec,
		revocations:            revocations,
		rotateRefreshTokens:    true,
		blacklistAfterRotation: true,
		nowFunc:                time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login checks credentials and mints a refresh token for the profile plus the access token derived
// from it. Every credential failure is reported as ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	profile, ok, err := s.verifier.Verify(ctx, identifier, password)
	if err != nil {
		return nil, fmt.Errorf("[Login] %w", err)
	}
	if !ok {
		return nil, autherrors.ErrInvalidCredentials
	}

	refresh, err := s.codec.Issue(token.Claims{
		token.ClaimSubject:  profile.ID,
		token.ClaimUsername: profile.Username,
	}, token.TypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("[Login] refresh token: %w", err)
	}
	access, err := s.codec.AccessFromRefresh(refresh)
	if err != nil {
		return nil, fmt.Errorf("[Login] access token: %w", err)
	}

	if err := s.profiles.UpdateLastLogin(ctx, profile.ID, s.nowFunc()); err != nil {
		log.Warn().Err(err).Str("profile_id", profile.ID).Msg("failed to record last login")
	}

	log.Info().Str("profile_id", profile.ID).Msg("login")
	return &Session{Access: access, Refresh: refresh, Profile: profile.Summary()}, nil
}

// Refresh exchanges a valid, non-blacklisted refresh token for a new access token. With rotation a new
// refresh token is issued too, and with blacklist-after-rotation the presented token is revoked before
// anything is returned. If that revocation fails no tokens are returned.
func (s *SessionService) Refresh(ctx context.Context, rawRefresh string) (*Session, error) {
	presented, err := s.revocations.Verify(ctx, rawRefresh, token.TypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("[Refresh] %w", err)
	}

	access, err := s.codec.AccessFromRefresh(presented)
	if err != nil {
		return nil, fmt.Errorf("[Refresh] access token: %w", err)
	}
	session := &Session{Access: access}
	if !s.rotateRefreshTokens {
		return session, nil
	}

	session.Refresh, err = s.codec.Issue(presented.Custom(), token.TypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("[Refresh] rotated refresh token: %w", err)
	}
	if s.blacklistAfterRotation {
		if err := s.revocations.Blacklist(ctx, presented); err != nil {
			return nil, fmt.Errorf("[Refresh] blacklist rotated token: %w", err)
		}
	}
	return session, nil
}

// Logout blacklists a refresh token. The blacklist is not consulted first, so logging out twice with the
// same token succeeds both times. Expired tokens are rejected with ErrTokenExpired.
func (s *SessionService) Logout(ctx context.Context, rawRefresh string) error {
	refresh, err := s.codec.Decode(rawRefresh, token.TypeRefresh)
	if err != nil {
		return fmt.Errorf("[Logout] %w", err)
	}
	if err := s.revocations.Blacklist(ctx, refresh); err != nil {
		return fmt.Errorf("[Logout] %w", err)
	}
	log.Info().Str("profile_id", refresh.Subject).Msg("logout")
	return nil
}

// Authenticate verifies an access token, including the blacklist check, and returns it so callers can
// read the subject.
func (s *SessionService) Authenticate(ctx context.Context, rawAccess string) (*token.Token, error) {
	access, err := s.revocations.Verify(ctx, rawAccess, token.TypeAccess)
	if err != nil {
		return nil, fmt.Errorf("[Authenticate] %w", err)
	}
	if access.Subject == "" {
		return nil, fmt.Errorf("[Authenticate] %w: no subject", autherrors.ErrTokenMalformed)
	}
	return access, nil
}

// RevokeAccess blacklists an access token, e.g. alongside logout.
func (s *SessionService) RevokeAccess(ctx context.Context, access *token.Token) error {
	if err := s.revocations.Blacklist(ctx, access); err != nil {
		return fmt.Errorf("[RevokeAccess] %w", err)
	}
	return nil
}

// Introspect describes an access token for resource servers. Invalid tokens come back inactive.
func (s *SessionService) Introspect(ctx context.Context, rawAccess string) (*revocation.Introspection, error) {
	introspection, err := s.revocations.Introspect(ctx, rawAccess)
	if err != nil {
		return nil, fmt.Errorf("[Introspect] %w", err)
	}
	return introspection, nil
}
