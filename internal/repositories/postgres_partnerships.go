package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/intega/platform/internal/db"
	"github.com/intega/platform/internal/models"
)

// PostgresPartnershipRepository provides PostgreSQL-backed persistence for partnerships.
type PostgresPartnershipRepository struct {
	pool db.Pool
}

// NewPostgresPartnershipRepository constructs a partnership repository backed by PostgreSQL.
func NewPostgresPartnershipRepository(pool db.Pool) *PostgresPartnershipRepository {
	return &PostgresPartnershipRepository{pool: pool}
}

// Create stores a partnership. A second row for the same school and company yields ErrConflict.
func (r *PostgresPartnershipRepository) Create(ctx context.Context, p models.Partnership) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO partnerships (id, school_id, company_id, status, start_date)
        VALUES ($1, $2, $3, $4, $5)
    `, p.ID, p.SchoolID, p.CompanyID, string(p.Status), p.StartDate)
	if err != nil {
		return mapWriteError(err, "insert partnership")
	}
	return nil
}

// FindByID loads a single partnership.
func (r *PostgresPartnershipRepository) FindByID(ctx context.Context, id string) (models.Partnership, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Partnership{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	p, err := scanPartnership(conn.QueryRow(ctx, `
        SELECT id, school_id, company_id, status, start_date FROM partnerships WHERE id = $1
    `, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Partnership{}, ErrNotFound
		}
		return models.Partnership{}, fmt.Errorf("select partnership: %w", err)
	}
	return p, nil
}

// ListForUser returns partnerships where the user is either the school or the company.
func (r *PostgresPartnershipRepository) ListForUser(ctx context.Context, userID string) ([]models.Partnership, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, school_id, company_id, status, start_date
        FROM partnerships
        WHERE school_id = $1 OR company_id = $1
        ORDER BY start_date DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query partnerships: %w", err)
	}
	defer rows.Close()

	var items []models.Partnership
	for rows.Next() {
		p, err := scanPartnership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partnership: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partnerships: %w", err)
	}
	return items, nil
}

// SetStatus activates or deactivates a partnership.
func (r *PostgresPartnershipRepository) SetStatus(ctx context.Context, id string, status models.PartnershipStatus) error {
	return execAffecting(ctx, r.pool, "update partnership status", `
        UPDATE partnerships SET status = $2 WHERE id = $1
    `, id, string(status))
}

// IsActive reports whether the school and company have an active partnership.
func (r *PostgresPartnershipRepository) IsActive(ctx context.Context, schoolID, companyID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var active bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM partnerships WHERE school_id = $1 AND company_id = $2 AND status = $3
        )
    `, schoolID, companyID, string(models.PartnershipActive)).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("check partnership: %w", err)
	}
	return active, nil
}

func scanPartnership(row pgx.Row) (models.Partnership, error) {
	var (
		p      models.Partnership
		status string
	)
	if err := row.Scan(&p.ID, &p.SchoolID, &p.CompanyID, &status, &p.StartDate); err != nil {
		return models.Partnership{}, err
	}
	p.Status = models.PartnershipStatus(status)
	return p, nil
}
