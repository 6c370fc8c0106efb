package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/intega/platform/internal/db"
	"github.com/intega/platform/internal/models"
)

// psql builds statements with PostgreSQL-style placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// mapWriteError translates constraint violations into repository sentinels.
func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, user_type, created_at, updated_at`

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Username, user.Email, user.Password, string(user.Type), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "insert user")
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		user     models.User
		userType string
	)
	err = conn.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &userType, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	user.Type = models.UserType(userType)

	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET username = $2, email = $3, password_hash = $4, updated_at = $5
        WHERE id = $1
    `, user.ID, user.Username, user.Email, user.Password, user.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "update user")
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// execAffecting runs a single-row write and reports ErrNotFound when nothing matched.
func execAffecting(ctx context.Context, pool db.Pool, op, query string, args ...any) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, op)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// transition applies a status change only while the row still holds from.
// Zero affected rows on a row that exists means a concurrent writer moved it
// first, reported as ErrConflict.
func transition(ctx context.Context, pool db.Pool, op, table, id, from, to string, at time.Time) error {
	update, args, err := psql.Update(table).
		Set("status", to).
		Set("updated_at", at).
		Where(sq.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: build query: %w", op, err)
	}
	err = execAffecting(ctx, pool, op, update, args...)
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	exists, args, err := psql.Select("1").From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("%s: build query: %w", op, err)
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	var one int
	if err := conn.QueryRow(ctx, exists, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return ErrConflict
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ InternshipRepository = (*PostgresInternshipRepository)(nil)
var _ ApplicationRepository = (*PostgresApplicationRepository)(nil)
var _ DocumentRepository = (*PostgresDocumentRepository)(nil)
var _ DocumentRequestRepository = (*PostgresDocumentRequestRepository)(nil)
var _ PartnershipRepository = (*PostgresPartnershipRepository)(nil)
var _ MessageRepository = (*PostgresMessageRepository)(nil)
