package port

import (
	"context"

	"github.com/pwysocki/docvault/internal/core/domain"
)

// ActivityRepository is the append-only sink for audit entries. Entries are
// never updated or deleted through this interface.
type ActivityRepository interface {
	Append(ctx context.Context, entry domain.ActivityLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error)
	ListForDocument(ctx context.Context, documentID string, limit int) ([]domain.ActivityLogEntry, error)
	ListForActor(ctx context.Context, actorID string, limit int) ([]domain.ActivityLogEntry, error)
}
