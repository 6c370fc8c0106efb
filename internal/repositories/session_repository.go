package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/intega/platform/internal/auth"
	"github.com/intega/platform/internal/db"
	"github.com/intega/platform/internal/models"
)

// PostgresSessionStore keeps refresh grants in the sessions table.
type PostgresSessionStore struct {
	pool db.Pool
}

func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save inserts a grant. Expired grants of the same user are swept in the
// same statement batch.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM sessions WHERE user_id = $1 AND expires_at <= $2`, session.UserID, session.IssuedAt.UTC())
	batch.Queue(`
        INSERT INTO sessions (token_hash, user_id, user_type, issued_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
    `, session.TokenHash, session.UserID, string(session.UserType), session.IssuedAt.UTC(), session.ExpiresAt.UTC())

	results := conn.SendBatch(ctx, batch)
	defer results.Close()
	if _, err := results.Exec(); err != nil {
		return fmt.Errorf("sweep sessions: %w", err)
	}
	if _, err := results.Exec(); err != nil {
		return mapWriteError(err, "insert session")
	}
	return nil
}

// Take deletes the grant and returns it. The DELETE makes concurrent
// rotations of one token race on a single row.
func (s *PostgresSessionStore) Take(ctx context.Context, tokenHash string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	session := auth.Session{TokenHash: tokenHash}
	var userType string
	err = conn.QueryRow(ctx, `
        DELETE FROM sessions
        WHERE token_hash = $1
        RETURNING user_id, user_type, issued_at, expires_at
    `, tokenHash).Scan(&session.UserID, &userType, &session.IssuedAt, &session.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("take session: %w", err)
	}

	session.UserType = models.UserType(userType)
	session.IssuedAt = session.IssuedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, tokenHash string) error {
	err := execAffecting(ctx, s.pool, "delete session", `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if errors.Is(err, ErrNotFound) {
		return auth.ErrSessionNotFound
	}
	return err
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
