package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/intega/platform/internal/db"
	"github.com/intega/platform/internal/models"
)

// PostgresApplicationRepository provides PostgreSQL-backed persistence for applications.
type PostgresApplicationRepository struct {
	pool db.Pool
}

// NewPostgresApplicationRepository constructs an application repository backed by PostgreSQL.
func NewPostgresApplicationRepository(pool db.Pool) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{pool: pool}
}

var applicationColumns = []string{
	"a.id", "a.internship_id", "a.student_id", "a.cover_letter", "a.status", "a.created_at", "a.updated_at",
}

// Create stores a new application. A second application from the same student
// to the same internship yields ErrConflict.
func (r *PostgresApplicationRepository) Create(ctx context.Context, app models.Application) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO applications (id, internship_id, student_id, cover_letter, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, app.ID, app.InternshipID, app.StudentID, app.CoverLetter, string(app.Status), app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "insert application")
	}
	return nil
}

// FindByID loads a single application.
func (r *PostgresApplicationRepository) FindByID(ctx context.Context, id string) (models.Application, error) {
	items, err := r.selectApplications(ctx, psql.Select(applicationColumns...).From("applications a").Where(sq.Eq{"a.id": id}))
	if err != nil {
		return models.Application{}, err
	}
	if len(items) == 0 {
		return models.Application{}, ErrNotFound
	}
	return items[0], nil
}

// ListByStudent returns the student's applications, newest first.
func (r *PostgresApplicationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Application, error) {
	return r.selectApplications(ctx, psql.Select(applicationColumns...).
		From("applications a").
		Where(sq.Eq{"a.student_id": studentID}).
		OrderBy("a.created_at DESC"))
}

// ListByCompany returns applications to any internship owned by the company.
func (r *PostgresApplicationRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Application, error) {
	return r.selectApplications(ctx, psql.Select(applicationColumns...).
		From("applications a").
		Join("internships i ON i.id = a.internship_id").
		Where(sq.Eq{"i.company_id": companyID}).
		OrderBy("a.created_at DESC"))
}

func (r *PostgresApplicationRepository) selectApplications(ctx context.Context, builder sq.SelectBuilder) ([]models.Application, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build application query: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var items []models.Application
	for rows.Next() {
		var (
			app    models.Application
			status string
		)
		if err := rows.Scan(&app.ID, &app.InternshipID, &app.StudentID, &app.CoverLetter, &status, &app.CreatedAt, &app.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		app.Status = models.ApplicationStatus(status)
		items = append(items, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return items, nil
}

// UpdateStatus persists a company's status change.
func (r *PostgresApplicationRepository) UpdateStatus(ctx context.Context, id string, from, to models.ApplicationStatus, at time.Time) error {
	return transition(ctx, r.pool, "update application status", "applications", id, string(from), string(to), at)
}
