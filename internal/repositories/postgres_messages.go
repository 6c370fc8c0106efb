package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/intega/platform/internal/db"
	"github.com/intega/platform/internal/models"
)

// PostgresMessageRepository provides PostgreSQL-backed persistence for direct messages.
type PostgresMessageRepository struct {
	pool db.Pool
}

// NewPostgresMessageRepository constructs a message repository backed by PostgreSQL.
func NewPostgresMessageRepository(pool db.Pool) *PostgresMessageRepository {
	return &PostgresMessageRepository{pool: pool}
}

const messageColumns = `id, sender_id, receiver_id, content, is_read, created_at`

// Create stores a new message.
func (r *PostgresMessageRepository) Create(ctx context.Context, m models.Message) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO messages (`+messageColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, m.ID, m.SenderID, m.ReceiverID, m.Content, m.IsRead, m.CreatedAt)
	if err != nil {
		return mapWriteError(err, "insert message")
	}
	return nil
}

// FindByID loads a single message.
func (r *PostgresMessageRepository) FindByID(ctx context.Context, id string) (models.Message, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Message{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var m models.Message
	err = conn.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id).
		Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Message{}, ErrNotFound
		}
		return models.Message{}, fmt.Errorf("select message: %w", err)
	}
	return m, nil
}

// ListBetween returns the thread between two users, oldest first.
func (r *PostgresMessageRepository) ListBetween(ctx context.Context, userID, peerID string) ([]models.Message, error) {
	return r.queryMessages(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
        ORDER BY created_at ASC
    `, userID, peerID)
}

// ListConversations summarises every thread the user takes part in.
func (r *PostgresMessageRepository) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	messages, err := r.queryMessages(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE sender_id = $1 OR receiver_id = $1
        ORDER BY created_at ASC
    `, userID)
	if err != nil {
		return nil, err
	}
	return buildConversations(userID, messages), nil
}

func (r *PostgresMessageRepository) queryMessages(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags a message as read.
func (r *PostgresMessageRepository) MarkRead(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "mark message read", `
        UPDATE messages SET is_read = TRUE WHERE id = $1
    `, id)
}
