package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/intega/platform/internal/db"
	"github.com/intega/platform/internal/models"
)

// PostgresInternshipRepository provides PostgreSQL-backed persistence for internships.
type PostgresInternshipRepository struct {
	pool db.Pool
}

// NewPostgresInternshipRepository constructs an internship repository backed by PostgreSQL.
func NewPostgresInternshipRepository(pool db.Pool) *PostgresInternshipRepository {
	return &PostgresInternshipRepository{pool: pool}
}

var internshipColumns = []string{
	"id", "company_id", "title", "description", "location", "duration_weeks",
	"skills", "status", "is_active", "created_at", "updated_at",
}

// Create stores a new internship.
func (r *PostgresInternshipRepository) Create(ctx context.Context, in models.Internship) error {
	query, args, err := psql.Insert("internships").
		Columns(internshipColumns...).
		Values(in.ID, in.CompanyID, in.Title, in.Description, in.Location, in.DurationWeeks,
			nonNilStrings(in.Skills), string(in.Status), in.IsActive, in.CreatedAt, in.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert internship: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return mapWriteError(err, "insert internship")
	}
	return nil
}

// FindByID loads a single internship.
func (r *PostgresInternshipRepository) FindByID(ctx context.Context, id string) (models.Internship, error) {
	items, err := r.selectInternships(ctx, psql.Select(internshipColumns...).From("internships").Where(sq.Eq{"id": id}))
	if err != nil {
		return models.Internship{}, err
	}
	if len(items) == 0 {
		return models.Internship{}, ErrNotFound
	}
	return items[0], nil
}

// List returns internships matching the query, newest first.
func (r *PostgresInternshipRepository) List(ctx context.Context, q InternshipQuery) ([]models.Internship, error) {
	builder := psql.Select(internshipColumns...).From("internships").OrderBy("created_at DESC")
	if q.CompanyID != "" {
		builder = builder.Where(sq.Eq{"company_id": q.CompanyID})
	}
	if q.PartneredSchoolID != "" {
		builder = builder.Where(sq.Expr(
			"company_id IN (SELECT company_id FROM partnerships WHERE school_id = ? AND status = ?)",
			q.PartneredSchoolID, string(models.PartnershipActive),
		))
	}
	if q.Status != "" {
		builder = builder.Where(sq.Eq{"status": string(q.Status)})
	}
	if q.ActiveOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}
	return r.selectInternships(ctx, builder)
}

func (r *PostgresInternshipRepository) selectInternships(ctx context.Context, builder sq.SelectBuilder) ([]models.Internship, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build internship query: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query internships: %w", err)
	}
	defer rows.Close()

	var items []models.Internship
	for rows.Next() {
		var (
			in     models.Internship
			status string
		)
		if err := rows.Scan(&in.ID, &in.CompanyID, &in.Title, &in.Description, &in.Location, &in.DurationWeeks,
			&in.Skills, &status, &in.IsActive, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan internship: %w", err)
		}
		in.Status = models.InternshipStatus(status)
		items = append(items, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate internships: %w", err)
	}
	return items, nil
}

// UpdateStatus records a school's review decision.
func (r *PostgresInternshipRepository) UpdateStatus(ctx context.Context, id string, from, to models.InternshipStatus, at time.Time) error {
	return transition(ctx, r.pool, "update internship status", "internships", id, string(from), string(to), at)
}

// SetActive toggles whether the internship is open to students.
func (r *PostgresInternshipRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	return execAffecting(ctx, r.pool, "update internship activity", `
        UPDATE internships SET is_active = $2, updated_at = $3 WHERE id = $1
    `, id, active, at)
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
