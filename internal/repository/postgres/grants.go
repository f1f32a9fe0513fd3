package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/pwysocki/docvault/internal/core/domain"
)

// GrantRepository implements port.GrantRepository using PostgreSQL.
type GrantRepository struct {
	pool    pgPool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewGrantRepository wires a PostgreSQL-backed grant repository.
func NewGrantRepository(pool pgPool) *GrantRepository {
	return &GrantRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert writes the grant, first deactivating any active grant for the same
// subject, resource, and kind. Deactivate-then-insert runs in one transaction
// so at most one active row exists per triple at any point.
func (r *GrantRepository) Upsert(ctx context.Context, grant domain.PermissionGrant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert grant: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE docvault.permission_grants SET active = FALSE
		 WHERE subject_id = $1 AND resource_type = $2 AND resource_id = $3 AND kind = $4 AND active = TRUE`,
		grant.SubjectID, grant.ResourceType, grant.ResourceID, grant.Kind); err != nil {
		return fmt.Errorf("deactivate prior grant: %w", err)
	}

	stmt, args, err := r.builder.Insert("docvault.permission_grants").
		Columns("id", "subject_id", "resource_type", "resource_id", "kind", "granted_by", "granted_at", "expires_at", "active").
		Values(grant.ID, grant.SubjectID, grant.ResourceType, grant.ResourceID, grant.Kind,
			grant.GrantedBy, grant.GrantedAt, grant.ExpiresAt, grant.Active).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert grant sql: %w", err)
	}
	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert grant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert grant: %w", err)
	}

	return nil
}

// Revoke deactivates the active grant for one kind.
func (r *GrantRepository) Revoke(ctx context.Context, subjectID string, resource domain.ResourceRef, kind domain.PermissionKind) error {
	stmt, args, err := r.builder.Update("docvault.permission_grants").
		Set("active", false).
		Where(squirrel.Eq{
			"subject_id":    subjectID,
			"resource_type": resource.Type,
			"resource_id":   resource.ID,
			"kind":          kind,
			"active":        true,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke grant sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("revoke grant: %w", err)
	}

	return nil
}

// RevokeAll deactivates every active grant the subject holds on the resource
// and reports how many rows were touched.
func (r *GrantRepository) RevokeAll(ctx context.Context, subjectID string, resource domain.ResourceRef) (int, error) {
	stmt, args, err := r.builder.Update("docvault.permission_grants").
		Set("active", false).
		Where(squirrel.Eq{
			"subject_id":    subjectID,
			"resource_type": resource.Type,
			"resource_id":   resource.ID,
			"active":        true,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke all sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke all grants: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// ActiveKinds returns the set of kinds the subject holds on the resource at
// the given instant. Expired grants are filtered out here, not deleted.
func (r *GrantRepository) ActiveKinds(ctx context.Context, subjectID string, resource domain.ResourceRef, now time.Time) (domain.GrantSet, error) {
	stmt, args, err := r.builder.Select("kind").
		From("docvault.permission_grants").
		Where(squirrel.Eq{
			"subject_id":    subjectID,
			"resource_type": resource.Type,
			"resource_id":   resource.ID,
			"active":        true,
		}).
		Where(squirrel.Or{
			squirrel.Eq{"expires_at": nil},
			squirrel.Gt{"expires_at": now},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active kinds sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query active kinds: %w", err)
	}
	defer rows.Close()

	set := make(domain.GrantSet)
	for rows.Next() {
		var kind domain.PermissionKind
		if err := rows.Scan(&kind); err != nil {
			return nil, fmt.Errorf("scan grant kind: %w", err)
		}
		set[kind] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grant kinds: %w", err)
	}

	return set, nil
}

// ListForResource returns every active grant on the resource.
func (r *GrantRepository) ListForResource(ctx context.Context, resource domain.ResourceRef) ([]domain.PermissionGrant, error) {
	stmt, args, err := r.builder.
		Select("id", "subject_id", "resource_type", "resource_id", "kind", "granted_by", "granted_at", "expires_at", "active").
		From("docvault.permission_grants").
		Where(squirrel.Eq{
			"resource_type": resource.Type,
			"resource_id":   resource.ID,
			"active":        true,
		}).
		OrderBy("granted_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list grants sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query grants: %w", err)
	}
	defer rows.Close()

	var grants []domain.PermissionGrant
	for rows.Next() {
		var (
			grant     domain.PermissionGrant
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&grant.ID, &grant.SubjectID, &grant.ResourceType, &grant.ResourceID,
			&grant.Kind, &grant.GrantedBy, &grant.GrantedAt, &expiresAt, &grant.Active); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			grant.ExpiresAt = &t
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}

	return grants, nil
}
