package usecase

import (
	"context"
	"fmt"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/core/port"
)

const defaultActivityLimit = 50

// ActivityService exposes read access to the audit trail. Superusers see
// everything; other users see only their own entries.
type ActivityService struct {
	activity port.ActivityRepository
}

// NewActivityService constructs an ActivityService.
func NewActivityService(activity port.ActivityRepository) *ActivityService {
	return &ActivityService{activity: activity}
}

// Recent returns the newest entries across all actors. Superusers only.
func (s *ActivityService) Recent(ctx context.Context, actor *domain.Actor, limit int) ([]domain.ActivityLogEntry, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if !actor.IsSuperuser {
		return nil, ErrForbidden
	}

	entries, err := s.activity.ListRecent(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}

// ForDocument returns the entries touching a document. Superusers only; the
// trail exposes other users' actions.
func (s *ActivityService) ForDocument(ctx context.Context, actor *domain.Actor, documentID string, limit int) ([]domain.ActivityLogEntry, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if !actor.IsSuperuser {
		return nil, ErrForbidden
	}

	entries, err := s.activity.ListForDocument(ctx, documentID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list document activity: %w", err)
	}
	return entries, nil
}

// Mine returns the actor's own entries.
func (s *ActivityService) Mine(ctx context.Context, actor *domain.Actor, limit int) ([]domain.ActivityLogEntry, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}

	entries, err := s.activity.ListForActor(ctx, actor.ID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list own activity: %w", err)
	}
	return entries, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultActivityLimit
	}
	return limit
}
