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

// FolderRepository implements port.FolderRepository using PostgreSQL.
type FolderRepository struct {
	pool    pgPool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewFolderRepository wires a PostgreSQL-backed folder repository.
func NewFolderRepository(pool pgPool) *FolderRepository {
	return &FolderRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new folder row.
func (r *FolderRepository) Create(ctx context.Context, folder domain.Folder) error {
	stmt, args, err := r.builder.Insert("docvault.folders").
		Columns("id", "name", "description", "owner_id", "parent_id", "created_at").
		Values(folder.ID, folder.Name, nullable(folder.Description), folder.OwnerID, folder.ParentID, folder.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert folder sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("insert folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by identifier.
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*domain.Folder, error) {
	stmt, args, err := r.folderSelect().
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select folder sql: %w", err)
	}

	return scanFolder(r.exec.QueryRow(ctx, stmt, args...))
}

// Update rewrites the folder's mutable metadata.
func (r *FolderRepository) Update(ctx context.Context, folder domain.Folder) error {
	stmt, args, err := r.builder.Update("docvault.folders").
		Set("name", folder.Name).
		Set("description", nullable(folder.Description)).
		Where(squirrel.Eq{"id": folder.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update folder sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListChildren returns the direct child folders under the given parent. A nil
// parent selects the owner's root folders.
func (r *FolderRepository) ListChildren(ctx context.Context, parentID *string, ownerID string) ([]domain.Folder, error) {
	query := r.folderSelect().Where(squirrel.Eq{"owner_id": ownerID})
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where(squirrel.Eq{"parent_id": *parentID})
	}

	stmt, args, err := query.OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list children sql: %w", err)
	}

	return r.queryFolders(ctx, stmt, args)
}

// ListByOwner returns every folder owned by the user.
func (r *FolderRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Folder, error) {
	stmt, args, err := r.folderSelect().
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list folders sql: %w", err)
	}

	return r.queryFolders(ctx, stmt, args)
}

// DeleteWithDisposition removes the folder after applying the strategy to its
// direct children, all in one transaction. Either every reassignment and the
// folder removal commit together or the tree is left untouched.
func (r *FolderRepository) DeleteWithDisposition(ctx context.Context, folder *domain.Folder, strategy domain.FolderDeletionStrategy, targetID *string) (port.DispositionResult, error) {
	var result port.DispositionResult

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin folder deletion: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	switch strategy {
	case domain.DeletionMoveToParent, domain.DeletionMoveToTarget:
		dest := folder.ParentID
		if strategy == domain.DeletionMoveToTarget {
			dest = targetID
		}

		tag, err := tx.Exec(ctx,
			`UPDATE docvault.folders SET parent_id = $1 WHERE parent_id = $2`,
			dest, folder.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return result, repository.ErrConflict
			}
			return result, fmt.Errorf("reassign child folders: %w", err)
		}
		result.MovedFolders = int(tag.RowsAffected())

		// Soft-deleted rows are reassigned too so the folder removal cannot
		// cascade them away, but only live documents count as moved.
		tag, err = tx.Exec(ctx,
			`UPDATE docvault.documents SET folder_id = $1 WHERE folder_id = $2 AND deleted = FALSE`,
			dest, folder.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return result, repository.ErrConflict
			}
			return result, fmt.Errorf("reassign documents: %w", err)
		}
		result.MovedDocuments = int(tag.RowsAffected())

		if _, err := tx.Exec(ctx,
			`UPDATE docvault.documents SET folder_id = $1 WHERE folder_id = $2 AND deleted = TRUE`,
			dest, folder.ID); err != nil {
			return result, fmt.Errorf("reassign soft-deleted documents: %w", err)
		}

	case domain.DeletionDeleteAll:
		// Direct documents are soft-deleted and keep their rows for the audit
		// trail. Child folder subtrees are removed outright together with
		// their documents.
		tag, err := tx.Exec(ctx,
			`UPDATE docvault.documents SET deleted = TRUE WHERE folder_id = $1 AND deleted = FALSE`,
			folder.ID)
		if err != nil {
			return result, fmt.Errorf("soft delete direct documents: %w", err)
		}
		result.MovedDocuments = int(tag.RowsAffected())

		if _, err := tx.Exec(ctx, `
			WITH RECURSIVE subtree AS (
				SELECT id FROM docvault.folders WHERE parent_id = $1
				UNION ALL
				SELECT f.id FROM docvault.folders f JOIN subtree s ON f.parent_id = s.id
			)
			DELETE FROM docvault.documents WHERE folder_id IN (SELECT id FROM subtree)`,
			folder.ID); err != nil {
			return result, fmt.Errorf("remove subtree documents: %w", err)
		}

		tag, err = tx.Exec(ctx, `
			WITH RECURSIVE subtree AS (
				SELECT id FROM docvault.folders WHERE parent_id = $1
				UNION ALL
				SELECT f.id FROM docvault.folders f JOIN subtree s ON f.parent_id = s.id
			)
			DELETE FROM docvault.folders WHERE id IN (SELECT id FROM subtree)`,
			folder.ID)
		if err != nil {
			return result, fmt.Errorf("remove subtree folders: %w", err)
		}
		result.MovedFolders = int(tag.RowsAffected())

	default:
		return result, fmt.Errorf("unknown deletion strategy %q", strategy)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM docvault.folders WHERE id = $1`, folder.ID)
	if err != nil {
		return result, fmt.Errorf("delete folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.DispositionResult{}, repository.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return port.DispositionResult{}, fmt.Errorf("commit folder deletion: %w", err)
	}

	return result, nil
}

func (r *FolderRepository) folderSelect() squirrel.SelectBuilder {
	return r.builder.
		Select("id", "name", "description", "owner_id", "parent_id", "created_at").
		From("docvault.folders")
}

func (r *FolderRepository) queryFolders(ctx context.Context, stmt string, args []any) ([]domain.Folder, error) {
	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	var folders []domain.Folder
	for rows.Next() {
		folder, err := scanFolderRow(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, *folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

func scanFolder(row pgx.Row) (*domain.Folder, error) {
	folder, err := scanFolderRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return folder, nil
}

func scanFolderRow(row pgx.Row) (*domain.Folder, error) {
	var (
		folder      domain.Folder
		description sql.NullString
		parentID    sql.NullString
	)
	if err := row.Scan(&folder.ID, &folder.Name, &description, &folder.OwnerID, &parentID, &folder.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan folder: %w", err)
	}
	if description.Valid {
		folder.Description = description.String
	}
	if parentID.Valid {
		folder.ParentID = &parentID.String
	}

	return &folder, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
