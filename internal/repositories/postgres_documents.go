package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/intega/platform/internal/db"
	"github.com/intega/platform/internal/models"
)

// PostgresDocumentRepository provides PostgreSQL-backed persistence for documents and shares.
type PostgresDocumentRepository struct {
	pool db.Pool
}

// NewPostgresDocumentRepository constructs a document repository backed by PostgreSQL.
func NewPostgresDocumentRepository(pool db.Pool) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{pool: pool}
}

const documentColumns = `d.id, d.owner_id, d.name, d.type, d.path, d.size, d.storage_status, d.created_at`

// Create stores document metadata. Bytes are written separately by the ingestor.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc models.Document) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO documents (id, owner_id, name, type, path, size, storage_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, doc.ID, doc.OwnerID, doc.Name, doc.Type, doc.Path, doc.Size, string(doc.StorageStatus), doc.CreatedAt)
	if err != nil {
		return mapWriteError(err, "insert document")
	}
	return nil
}

// FindByID loads document metadata.
func (r *PostgresDocumentRepository) FindByID(ctx context.Context, id string) (models.Document, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Document{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	doc, err := scanDocument(conn.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Document{}, ErrNotFound
		}
		return models.Document{}, fmt.Errorf("select document: %w", err)
	}
	return doc, nil
}

// ListByOwner returns the user's own documents, newest first.
func (r *PostgresDocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+documentColumns+`
        FROM documents d
        WHERE d.owner_id = $1
        ORDER BY d.created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// MarkStored records where the ingestor wrote the bytes.
func (r *PostgresDocumentRepository) MarkStored(ctx context.Context, id, path string, size int64) error {
	return execAffecting(ctx, r.pool, "mark document stored", `
        UPDATE documents SET path = $2, size = $3, storage_status = $4 WHERE id = $1
    `, id, path, size, string(models.StorageReady))
}

// MarkFailed flags a document whose bytes could not be stored.
func (r *PostgresDocumentRepository) MarkFailed(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "mark document failed", `
        UPDATE documents SET storage_status = $2 WHERE id = $1
    `, id, string(models.StorageFailed))
}

// Share records that the owner made the document visible to a recipient.
func (r *PostgresDocumentRepository) Share(ctx context.Context, share models.SharedDocument) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO shared_documents (id, document_id, owner_id, recipient_id, shared_at)
        VALUES ($1, $2, $3, $4, $5)
    `, share.ID, share.DocumentID, share.OwnerID, share.RecipientID, share.SharedAt)
	if err != nil {
		return mapWriteError(err, "insert shared document")
	}
	return nil
}

var shareSelect = psql.Select(
	"s.id", "s.document_id", "s.owner_id", "s.recipient_id", "s.forwarded_to_company_id", "s.shared_at", "s.forwarded_at",
	"d.id", "d.owner_id", "d.name", "d.type", "d.path", "d.size", "d.storage_status", "d.created_at",
).From("shared_documents s").Join("documents d ON d.id = s.document_id")

// FindShare loads a share together with its document.
func (r *PostgresDocumentRepository) FindShare(ctx context.Context, id string) (models.SharedDocument, error) {
	shares, err := r.selectShares(ctx, shareSelect.Where(sq.Eq{"s.id": id}))
	if err != nil {
		return models.SharedDocument{}, err
	}
	if len(shares) == 0 {
		return models.SharedDocument{}, ErrNotFound
	}
	return shares[0], nil
}

// ListSharedWith returns shares addressed to the recipient, newest first.
func (r *PostgresDocumentRepository) ListSharedWith(ctx context.Context, recipientID string) ([]models.SharedDocument, error) {
	return r.selectShares(ctx, shareSelect.
		Where(sq.Or{sq.Eq{"s.recipient_id": recipientID}, sq.Eq{"s.forwarded_to_company_id": recipientID}}).
		OrderBy("s.shared_at DESC"))
}

func (r *PostgresDocumentRepository) selectShares(ctx context.Context, builder sq.SelectBuilder) ([]models.SharedDocument, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build share query: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shared documents: %w", err)
	}
	defer rows.Close()

	var shares []models.SharedDocument
	for rows.Next() {
		var (
			share         models.SharedDocument
			storageStatus string
		)
		if err := rows.Scan(
			&share.ID, &share.DocumentID, &share.OwnerID, &share.RecipientID, &share.ForwardedToCompanyID, &share.SharedAt, &share.ForwardedAt,
			&share.Document.ID, &share.Document.OwnerID, &share.Document.Name, &share.Document.Type,
			&share.Document.Path, &share.Document.Size, &storageStatus, &share.Document.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan shared document: %w", err)
		}
		share.Document.StorageStatus = models.StorageStatus(storageStatus)
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared documents: %w", err)
	}
	return shares, nil
}

// Forward sets the forward target once. A second attempt yields ErrConflict.
func (r *PostgresDocumentRepository) Forward(ctx context.Context, shareID, companyID string, at time.Time) error {
	err := execAffecting(ctx, r.pool, "forward shared document", `
        UPDATE shared_documents
        SET forwarded_to_company_id = $2, forwarded_at = $3
        WHERE id = $1 AND forwarded_to_company_id IS NULL
    `, shareID, companyID, at)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	if _, findErr := r.FindShare(ctx, shareID); findErr != nil {
		return findErr
	}
	return ErrConflict
}

// CanAccess reports whether the user owns, received, or was forwarded the document.
func (r *PostgresDocumentRepository) CanAccess(ctx context.Context, documentID, userID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var allowed bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1 AND owner_id = $2)
            OR EXISTS (
                SELECT 1 FROM shared_documents
                WHERE document_id = $1 AND (recipient_id = $2 OR forwarded_to_company_id = $2)
            )
    `, documentID, userID).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("check document access: %w", err)
	}
	return allowed, nil
}

func scanDocument(row pgx.Row) (models.Document, error) {
	var (
		doc    models.Document
		status string
	)
	if err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Name, &doc.Type, &doc.Path, &doc.Size, &status, &doc.CreatedAt); err != nil {
		return models.Document{}, err
	}
	doc.StorageStatus = models.StorageStatus(status)
	return doc, nil
}
