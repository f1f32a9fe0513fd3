package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/repository"
)

// VersionRepository implements port.VersionRepository using PostgreSQL.
type VersionRepository struct {
	pool    pgPool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewVersionRepository wires a PostgreSQL-backed version repository.
func NewVersionRepository(pool pgPool) *VersionRepository {
	return &VersionRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts a version with the next sequence number for its document.
// The number is computed as max+1 inside the transaction, so concurrent
// uploads serialize and removed numbers are never reassigned.
func (r *VersionRepository) Append(ctx context.Context, version domain.DocumentVersion) (*domain.DocumentVersion, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin append version: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the parent document row so concurrent uploads serialize on the
	// number computation.
	var docID string
	if err := tx.QueryRow(ctx,
		`SELECT id FROM docvault.documents WHERE id = $1 FOR UPDATE`,
		version.DocumentID).Scan(&docID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lock document: %w", err)
	}

	row := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM docvault.document_versions WHERE document_id = $1`,
		version.DocumentID)
	if err := row.Scan(&version.Number); err != nil {
		return nil, fmt.Errorf("next version number: %w", err)
	}

	stmt, args, err := r.builder.Insert("docvault.document_versions").
		Columns("id", "document_id", "number", "created_by", "created_at", "content_ref", "size_bytes", "content_hash", "comment").
		Values(version.ID, version.DocumentID, version.Number, version.CreatedBy, version.CreatedAt,
			version.ContentRef, version.SizeBytes, version.ContentHash, nullable(version.Comment)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert version sql: %w", err)
	}
	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit append version: %w", err)
	}

	return &version, nil
}

// ListByDocument returns the document's versions, newest first.
func (r *VersionRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.DocumentVersion, error) {
	stmt, args, err := r.builder.
		Select("id", "document_id", "number", "created_by", "created_at", "content_ref", "size_bytes", "content_hash", "comment").
		From("docvault.document_versions").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("number DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list versions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.DocumentVersion
	for rows.Next() {
		var (
			version domain.DocumentVersion
			comment sql.NullString
		)
		if err := rows.Scan(&version.ID, &version.DocumentID, &version.Number, &version.CreatedBy,
			&version.CreatedAt, &version.ContentRef, &version.SizeBytes, &version.ContentHash, &comment); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		if comment.Valid {
			version.Comment = comment.String
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return versions, nil
}

// Delete removes one version from the history. Its number stays burned.
func (r *VersionRepository) Delete(ctx context.Context, documentID string, number int) error {
	stmt, args, err := r.builder.Delete("docvault.document_versions").
		Where(squirrel.Eq{"document_id": documentID, "number": number}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete version sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
