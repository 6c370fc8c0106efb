package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/intega/platform/internal/db"
	"github.com/intega/platform/internal/models"
)

// PostgresDocumentRequestRepository provides PostgreSQL-backed persistence for document requests.
type PostgresDocumentRequestRepository struct {
	pool db.Pool
}

// NewPostgresDocumentRequestRepository constructs a document request repository backed by PostgreSQL.
func NewPostgresDocumentRequestRepository(pool db.Pool) *PostgresDocumentRequestRepository {
	return &PostgresDocumentRequestRepository{pool: pool}
}

var requestColumns = []string{
	"id", "student_id", "school_id", "application_id", "request_type", "message", "status", "created_at", "updated_at",
}

// Create stores a new document request.
func (r *PostgresDocumentRequestRepository) Create(ctx context.Context, req models.DocumentRequest) error {
	query, args, err := psql.Insert("document_requests").
		Columns(requestColumns...).
		Values(req.ID, req.StudentID, req.SchoolID, req.ApplicationID, string(req.RequestType),
			req.Message, string(req.Status), req.CreatedAt, req.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert document request: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return mapWriteError(err, "insert document request")
	}
	return nil
}

// FindByID loads a single document request.
func (r *PostgresDocumentRequestRepository) FindByID(ctx context.Context, id string) (models.DocumentRequest, error) {
	items, err := r.selectRequests(ctx, psql.Select(requestColumns...).From("document_requests").Where(sq.Eq{"id": id}))
	if err != nil {
		return models.DocumentRequest{}, err
	}
	if len(items) == 0 {
		return models.DocumentRequest{}, ErrNotFound
	}
	return items[0], nil
}

// List returns requests for the student or school, newest first.
func (r *PostgresDocumentRequestRepository) List(ctx context.Context, q DocumentRequestQuery) ([]models.DocumentRequest, error) {
	builder := psql.Select(requestColumns...).From("document_requests").OrderBy("created_at DESC")
	if q.StudentID != "" {
		builder = builder.Where(sq.Eq{"student_id": q.StudentID})
	}
	if q.SchoolID != "" {
		builder = builder.Where(sq.Eq{"school_id": q.SchoolID})
	}
	return r.selectRequests(ctx, builder)
}

func (r *PostgresDocumentRequestRepository) selectRequests(ctx context.Context, builder sq.SelectBuilder) ([]models.DocumentRequest, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build document request query: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query document requests: %w", err)
	}
	defer rows.Close()

	var items []models.DocumentRequest
	for rows.Next() {
		var (
			req         models.DocumentRequest
			requestType string
			status      string
		)
		if err := rows.Scan(&req.ID, &req.StudentID, &req.SchoolID, &req.ApplicationID, &requestType,
			&req.Message, &status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document request: %w", err)
		}
		req.RequestType = models.DocumentRequestType(requestType)
		req.Status = models.DocumentRequestStatus(status)
		items = append(items, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document requests: %w", err)
	}
	return items, nil
}

// UpdateStatus records the school's resolution.
func (r *PostgresDocumentRequestRepository) UpdateStatus(ctx context.Context, id string, from, to models.DocumentRequestStatus, at time.Time) error {
	return transition(ctx, r.pool, "update document request status", "document_requests", id, string(from), string(to), at)
}
