package port

import (
	"context"
	"time"

	"github.com/pwysocki/docvault/internal/core/domain"
)

// GrantRepository exposes persistence behavior for permission grants.
//
// Upsert supersedes any existing active grant for the same
// (subject, resource, kind) triple: the old row is deactivated and a fresh one
// inserted in a single transaction, so the at-most-one-active invariant holds
// under concurrent writers (last write wins).
type GrantRepository interface {
	Upsert(ctx context.Context, grant domain.PermissionGrant) error
	// Revoke deactivates the matching active grant; no-op when none exists.
	Revoke(ctx context.Context, subjectID string, resource domain.ResourceRef, kind domain.PermissionKind) error
	// RevokeAll deactivates every kind for the subject/resource pair and
	// returns how many grants were deactivated.
	RevokeAll(ctx context.Context, subjectID string, resource domain.ResourceRef) (int, error)
	// ActiveKinds returns the kinds currently active and unexpired at the
	// reference instant. Expired rows are filtered here, not deleted.
	ActiveKinds(ctx context.Context, subjectID string, resource domain.ResourceRef, now time.Time) (domain.GrantSet, error)
	// ListForResource returns all active grants on the resource, for the
	// permission-administration views.
	ListForResource(ctx context.Context, resource domain.ResourceRef) ([]domain.PermissionGrant, error)
}
