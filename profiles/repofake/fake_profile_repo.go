package repofake

import (
	"context"
	"strings"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/jrsteele09/yanssound-auth/profiles"
)

var _ profiles.Repo = (*FakeProfileRepo)(nil)

// FakeProfileRepo keeps profiles in memory. Returned profiles are copies.
type FakeProfileRepo struct {
	profiles  map[string]*profiles.Profile
	emailIDs  map[string]string // lowercased email to profile id
	usernames map[string]string // username to profile id
	lock      sync.RWMutex

	// FailUpdateLastLogin makes UpdateLastLogin return this error when set.
	FailUpdateLastLogin error
}

func NewFakeProfileRepo() *FakeProfileRepo {
	return &FakeProfileRepo{
		profiles:  make(map[string]*profiles.Profile),
		emailIDs:  make(map[string]string),
		usernames: make(map[string]string),
	}
}

func (r *FakeProfileRepo) Create(_ context.Context, profile *profiles.Profile) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	email := strings.ToLower(profile.Email)
	if _, ok := r.emailIDs[email]; ok {
		return autherrors.Wrapf(autherrors.ErrAlreadyExists, "email %s", profile.Email)
	}
	if _, ok := r.usernames[profile.Username]; ok {
		return autherrors.Wrapf(autherrors.ErrAlreadyExists, "username %s", profile.Username)
	}
	stored := *profile
	r.profiles[profile.ID] = &stored
	r.emailIDs[email] = profile.ID
	r.usernames[profile.Username] = profile.ID
	return nil
}

func (r *FakeProfileRepo) GetByID(_ context.Context, id string) (*profiles.Profile, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.get(id)
}

func (r *FakeProfileRepo) GetByUsername(_ context.Context, username string) (*profiles.Profile, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.usernames[username]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	return r.get(id)
}

func (r *FakeProfileRepo) GetByEmail(_ context.Context, email string) (*profiles.Profile, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.emailIDs[strings.ToLower(email)]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	return r.get(id)
}

func (r *FakeProfileRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if r.FailUpdateLastLogin != nil {
		return r.FailUpdateLastLogin
	}
	return r.update(id, func(p *profiles.Profile) {
		at = at.UTC()
		p.LastLogin = &at
	})
}

func (r *FakeProfileRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.update(id, func(p *profiles.Profile) { p.PasswordHash = passwordHash })
}

func (r *FakeProfileRepo) SetVerified(_ context.Context, id string, verified bool) error {
	return r.update(id, func(p *profiles.Profile) { p.IsVerified = verified })
}

func (r *FakeProfileRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.update(id, func(p *profiles.Profile) { p.IsActive = active })
}

func (r *FakeProfileRepo) get(id string) (*profiles.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *FakeProfileRepo) update(id string, mutate func(*profiles.Profile)) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return autherrors.ErrNotFound
	}
	mutate(p)
	return nil
}
