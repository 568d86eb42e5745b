// Package postgres provides a durable session store backed by a single
// sessions table. Expired rows are filtered on read and reaped lazily.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	domainauth "github.com/verdan/authgate/internal/domain/auth"
	"github.com/verdan/authgate/internal/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore persists session records in PostgreSQL.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a Postgres-backed session store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// EnsureSchema creates the sessions table when it does not exist yet.
func (s *SessionStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL DEFAULT '',
	email            TEXT NOT NULL DEFAULT '',
	access_token     TEXT NOT NULL DEFAULT '',
	refresh_token    TEXT NOT NULL DEFAULT '',
	token_expires_at TIMESTAMPTZ,
	expires_at       TIMESTAMPTZ NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure sessions schema: %w", err)
	}
	return nil
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if sess.Expired(time.Now()) {
		return errors.New("session is expired")
	}

	const insert = `
INSERT INTO sessions (id, user_id, email, access_token, refresh_token, token_expires_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, insert,
		sess.ID, sess.UserID, sess.Email, sess.AccessToken, sess.RefreshToken,
		nullableTime(sess.TokenExpiresAt), sess.ExpiresAt)
	if err == nil {
		return nil
	}

	// A concurrent or repeated login under the same identifier supersedes
	// the prior record (last writer wins).
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return s.update(ctx, sess)
	}
	return fmt.Errorf("insert session: %w", err)
}

func (s *SessionStore) update(ctx context.Context, sess domainauth.Session) error {
	const update = `
UPDATE sessions
SET user_id = $2, email = $3, access_token = $4, refresh_token = $5,
    token_expires_at = $6, expires_at = $7
WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, update,
		sess.ID, sess.UserID, sess.Email, sess.AccessToken, sess.RefreshToken,
		nullableTime(sess.TokenExpiresAt), sess.ExpiresAt); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	const query = `
SELECT id, user_id, email, access_token, refresh_token, token_expires_at, expires_at
FROM sessions
WHERE id = $1`
	var (
		sess           domainauth.Session
		tokenExpiresAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID, &sess.UserID, &sess.Email, &sess.AccessToken, &sess.RefreshToken,
		&tokenExpiresAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("query session: %w", err)
	}
	if tokenExpiresAt.Valid {
		sess.TokenExpiresAt = tokenExpiresAt.Time
	}

	if sess.Expired(time.Now()) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
