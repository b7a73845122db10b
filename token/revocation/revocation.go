package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/jrsteele09/yanssound-auth/token"
	"github.com/rs/zerolog/log"
)

const (
	DefaultKeyPrefix = "blacklist:"
	defaultTimeout   = 2 * time.Second
)

// Store is a key-value service with per-key expiry. Single-key Set and Get must be atomic.
type Store interface {
	// Set writes value under key; the entry disappears once ttl has elapsed.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get reports whether key holds a live entry.
	Get(ctx context.Context, key string) (value string, found bool, err error)
}

// Decoder is the part of token.Codec the manager relies on.
type Decoder interface {
	Decode(raw string, expected token.Type) (*token.Token, error)
}

var _ Decoder = (*token.Codec)(nil)

// Manager blacklists tokens by jti and refuses blacklisted tokens on verify.
type Manager struct {
	store     Store
	decoder   Decoder
	keyPrefix string
	timeout   time.Duration
	nowFunc   func() time.Time
}

type ManagerOption func(*Manager)

func WithKeyPrefix(prefix string) ManagerOption {
	return func(m *Manager) {
		m.keyPrefix = prefix
	}
}

// WithTimeout bounds every store round trip.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(store Store, decoder Decoder, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] revocation store is required")
	}
	if decoder == nil {
		return nil, errors.New("[NewManager] token decoder is required")
	}
	m := &Manager{
		store:     store,
		decoder:   decoder,
		keyPrefix: DefaultKeyPrefix,
		timeout:   defaultTimeout,
		nowFunc:   time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Blacklist records tok's jti until the token's own expiry. The TTL is rounded up to whole seconds so
// the entry never lapses before the token does. A token that has already expired is not written.
// Repeating the call for the same token overwrites the entry with the same value.
func (m *Manager) Blacklist(ctx context.Context, tok *token.Token) error {
	if tok == nil || tok.JTI == "" {
		return fmt.Errorf("%w: token has no jti", autherrors.ErrTokenMalformed)
	}

	ttl := TTLFor(tok.ExpiresAt, m.nowFunc())
	if ttl <= 0 {
		log.Debug().Str("jti", tok.JTI).Msg("token already expired, skipping blacklist write")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.store.Set(ctx, m.key(tok.JTI), tok.String(), ttl); err != nil {
		return fmt.Errorf("%w: blacklist %s: %w", autherrors.ErrRevocationStoreUnavailable, tok.JTI, err)
	}
	return nil
}

// IsBlacklisted reports whether jti has a live blacklist entry. A store failure is returned as
// ErrRevocationStoreUnavailable, never as "not blacklisted".
func (m *Manager) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, found, err := m.store.Get(ctx, m.key(jti))
	if err != nil {
		return false, fmt.Errorf("%w: lookup %s: %w", autherrors.ErrRevocationStoreUnavailable, jti, err)
	}
	return found, nil
}

// Verify decodes raw as the expected type and then checks the blacklist. It fails closed when the
// store cannot be reached.
func (m *Manager) Verify(ctx context.Context, raw string, expected token.Type) (*token.Token, error) {
	tok, err := m.decoder.Decode(raw, expected)
	if err != nil {
		return nil, err
	}

	blacklisted, err := m.IsBlacklisted(ctx, tok.JTI)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, fmt.Errorf("%w: %s", autherrors.ErrTokenBlacklisted, tok.JTI)
	}
	return tok, nil
}

func (m *Manager) key(jti string) string {
	return m.keyPrefix + jti
}

// TTLFor returns the time left until expiresAt, rounded up to a whole second. It returns zero once
// expiresAt is not after now.
func TTLFor(expiresAt, now time.Time) time.Duration {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	if rounded := remaining.Truncate(time.Second); rounded != remaining {
		return rounded + time.Second
	}
	return remaining
}
