package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/core/port"
	"github.com/pwysocki/docvault/internal/repository"
)

// DocumentRepository implements port.DocumentRepository using PostgreSQL.
type DocumentRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewDocumentRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewDocumentRepository(exec pgExecutor) *DocumentRepository {
	return &DocumentRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new document row.
func (r *DocumentRepository) Create(ctx context.Context, doc domain.Document) error {
	stmt, args, err := r.builder.Insert("docvault.documents").
		Columns(
			"id",
			"name",
			"content_type",
			"size_bytes",
			"owner_id",
			"folder_id",
			"deleted",
			"status",
			"tags",
			"content_hash",
			"description",
			"created_at",
			"modified_at",
		).
		Values(
			doc.ID,
			doc.Name,
			doc.ContentType,
			doc.SizeBytes,
			doc.OwnerID,
			doc.FolderID,
			doc.Deleted,
			doc.Status,
			doc.Tags,
			doc.ContentHash,
			nullable(doc.Description),
			doc.CreatedAt,
			doc.ModifiedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert document sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("insert document: %w", err)
	}

	return nil
}

// Get retrieves a document by identifier, excluding soft-deleted rows.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*domain.Document, error) {
	stmt, args, err := r.documentSelect().
		Where(squirrel.Eq{"id": id, "deleted": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select document sql: %w", err)
	}

	return scanDocument(r.exec.QueryRow(ctx, stmt, args...))
}

// GetAny retrieves a document by identifier including soft-deleted rows, for
// audit and restore tooling.
func (r *DocumentRepository) GetAny(ctx context.Context, id string) (*domain.Document, error) {
	stmt, args, err := r.documentSelect().
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select document sql: %w", err)
	}

	return scanDocument(r.exec.QueryRow(ctx, stmt, args...))
}

// Update rewrites the document's mutable fields.
func (r *DocumentRepository) Update(ctx context.Context, doc domain.Document) error {
	stmt, args, err := r.builder.Update("docvault.documents").
		Set("name", doc.Name).
		Set("content_type", doc.ContentType).
		Set("size_bytes", doc.SizeBytes).
		Set("folder_id", doc.FolderID).
		Set("status", doc.Status).
		Set("content_hash", doc.ContentHash).
		Set("description", nullable(doc.Description)).
		Set("modified_at", doc.ModifiedAt).
		Where(squirrel.Eq{"id": doc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update document sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SoftDelete marks the document as deleted. The row survives.
func (r *DocumentRepository) SoftDelete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("docvault.documents").
		Set("deleted", true).
		Where(squirrel.Eq{"id": id, "deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetTags replaces the document's tag array.
func (r *DocumentRepository) SetTags(ctx context.Context, id string, tags []string) error {
	stmt, args, err := r.builder.Update("docvault.documents").
		Set("tags", tags).
		Set("modified_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set tags sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set tags: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns documents matching the filter, newest first.
func (r *DocumentRepository) List(ctx context.Context, filter port.DocumentFilter) ([]domain.Document, error) {
	query := r.documentSelect()
	if !filter.IncludeDeleted {
		query = query.Where(squirrel.Eq{"deleted": false})
	}
	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"owner_id": filter.OwnerID})
	}
	if filter.FolderID != nil {
		query = query.Where(squirrel.Eq{"folder_id": *filter.FolderID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	query = query.OrderBy("modified_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list documents sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// CountByFolder reports how many live documents sit directly in the folder.
func (r *DocumentRepository) CountByFolder(ctx context.Context, folderID string) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("docvault.documents").
		Where(squirrel.Eq{"folder_id": folderID, "deleted": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count documents sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}

	return count, nil
}

func (r *DocumentRepository) documentSelect() squirrel.SelectBuilder {
	return r.builder.
		Select(
			"id",
			"name",
			"content_type",
			"size_bytes",
			"owner_id",
			"folder_id",
			"deleted",
			"status",
			"tags",
			"content_hash",
			"description",
			"created_at",
			"modified_at",
		).
		From("docvault.documents")
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	doc, err := scanDocumentRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func scanDocumentRow(row pgx.Row) (*domain.Document, error) {
	var (
		doc         domain.Document
		description sql.NullString
	)
	if err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.ContentType,
		&doc.SizeBytes,
		&doc.OwnerID,
		&doc.FolderID,
		&doc.Deleted,
		&doc.Status,
		&doc.Tags,
		&doc.ContentHash,
		&description,
		&doc.CreatedAt,
		&doc.ModifiedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	if description.Valid {
		doc.Description = description.String
	}

	return &doc, nil
}
