package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrsteele09/yanssound-auth/internal/database"
	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/jrsteele09/yanssound-auth/profiles"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ profiles.Repo = (*Repo)(nil)

const profileColumns = `id, username, email, password_hash, biography, is_active, is_artist, is_verified, is_staff, date_joined, last_login`

// Repo implements profiles.Repo on database/sql. The same statements run on SQLite and Postgres.
type Repo struct {
	db *database.DB
}

func New(db *database.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, p *profiles.Profile) error {
	query := r.db.Rebind(`INSERT INTO profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Username, p.Email, p.PasswordHash, p.Biography,
		p.IsActive, p.IsArtist, p.IsVerified, p.IsStaff,
		p.DateJoined.UTC(), nullTime(p.LastLogin),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return autherrors.Wrapf(autherrors.ErrAlreadyExists, "profile %s", p.Username)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*profiles.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*profiles.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE username = ?`, username)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*profiles.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower(?)`, email)
}

func (r *Repo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, `UPDATE profiles SET last_login = ? WHERE id = ?`, at.UTC(), id)
}

func (r *Repo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateOne(ctx, `UPDATE profiles SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

func (r *Repo) SetVerified(ctx context.Context, id string, verified bool) error {
	return r.updateOne(ctx, `UPDATE profiles SET is_verified = ? WHERE id = ?`, verified, id)
}

func (r *Repo) SetActive(ctx context.Context, id string, active bool) error {
	return r.updateOne(ctx, `UPDATE profiles SET is_active = ? WHERE id = ?`, active, id)
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (*profiles.Profile, error) {
	var (
		p         profiles.Profile
		lastLogin sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), arg).Scan(
		&p.ID, &p.Username, &p.Email, &p.PasswordHash, &p.Biography,
		&p.IsActive, &p.IsArtist, &p.IsVerified, &p.IsStaff,
		&p.DateJoined, &lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, autherrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	p.DateJoined = p.DateJoined.UTC()
	if lastLogin.Valid {
		at := lastLogin.Time.UTC()
		p.LastLogin = &at
	}
	return &p, nil
}

func (r *Repo) updateOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if affected == 0 {
		return autherrors.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
