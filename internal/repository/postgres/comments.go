package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/pwysocki/docvault/internal/core/domain"
)

// CommentRepository implements port.CommentRepository using PostgreSQL.
type CommentRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCommentRepository constructs a comment repository instance.
func NewCommentRepository(exec pgExecutor) *CommentRepository {
	return &CommentRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new comment row.
func (r *CommentRepository) Create(ctx context.Context, comment domain.Comment) error {
	stmt, args, err := r.builder.Insert("docvault.document_comments").
		Columns("id", "document_id", "author_id", "body", "parent_id", "created_at").
		Values(comment.ID, comment.DocumentID, comment.AuthorID, comment.Body, comment.ParentID, comment.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert comment sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ListByDocument returns the document's comments in creation order.
func (r *CommentRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.Comment, error) {
	stmt, args, err := r.builder.
		Select("id", "document_id", "author_id", "body", "parent_id", "created_at").
		From("docvault.document_comments").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list comments sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var (
			comment  domain.Comment
			parentID sql.NullString
		)
		if err := rows.Scan(&comment.ID, &comment.DocumentID, &comment.AuthorID, &comment.Body, &parentID, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if parentID.Valid {
			comment.ParentID = &parentID.String
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}
