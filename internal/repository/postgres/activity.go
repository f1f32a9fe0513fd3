package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/pwysocki/docvault/internal/core/domain"
)

// ActivityRepository implements port.ActivityRepository using PostgreSQL. The
// table is append-only; no update or delete statements exist here.
type ActivityRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewActivityRepository constructs an activity repository instance.
func NewActivityRepository(exec pgExecutor) *ActivityRepository {
	return &ActivityRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts an audit entry.
func (r *ActivityRepository) Append(ctx context.Context, entry domain.ActivityLogEntry) error {
	stmt, args, err := r.builder.Insert("docvault.activity_log").
		Columns("id", "actor_id", "action", "document_id", "folder_id", "detail", "occurred_at", "origin_ip").
		Values(entry.ID, entry.ActorID, entry.Action, entry.DocumentID, entry.FolderID,
			nullable(entry.Detail), entry.OccurredAt, nullable(entry.OriginIP)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert activity sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}

	return nil
}

// ListRecent returns the newest entries across all actors.
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	return r.list(ctx, r.activitySelect(), limit)
}

// ListForDocument returns the newest entries touching a document.
func (r *ActivityRepository) ListForDocument(ctx context.Context, documentID string, limit int) ([]domain.ActivityLogEntry, error) {
	return r.list(ctx, r.activitySelect().Where(squirrel.Eq{"document_id": documentID}), limit)
}

// ListForActor returns the newest entries produced by an actor.
func (r *ActivityRepository) ListForActor(ctx context.Context, actorID string, limit int) ([]domain.ActivityLogEntry, error) {
	return r.list(ctx, r.activitySelect().Where(squirrel.Eq{"actor_id": actorID}), limit)
}

func (r *ActivityRepository) activitySelect() squirrel.SelectBuilder {
	return r.builder.
		Select("id", "actor_id", "action", "document_id", "folder_id", "detail", "occurred_at", "origin_ip").
		From("docvault.activity_log")
}

func (r *ActivityRepository) list(ctx context.Context, query squirrel.SelectBuilder, limit int) ([]domain.ActivityLogEntry, error) {
	query = query.OrderBy("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list activity sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityLogEntry
	for rows.Next() {
		var (
			entry      domain.ActivityLogEntry
			documentID sql.NullString
			folderID   sql.NullString
			detail     sql.NullString
			originIP   sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &documentID, &folderID, &detail, &entry.OccurredAt, &originIP); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		if documentID.Valid {
			entry.DocumentID = &documentID.String
		}
		if folderID.Valid {
			entry.FolderID = &folderID.String
		}
		if detail.Valid {
			entry.Detail = detail.String
		}
		if originIP.Valid {
			entry.OriginIP = originIP.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity entries: %w", err)
	}

	return entries, nil
}
