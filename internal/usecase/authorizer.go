package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/core/port"
)

// DocumentOperation names an intended action on a document.
type DocumentOperation string

const (
	OpDocumentView     DocumentOperation = "view"
	OpDocumentDownload DocumentOperation = "download"
	OpDocumentEdit     DocumentOperation = "edit"
	OpDocumentDelete   DocumentOperation = "delete"
	OpDocumentShare    DocumentOperation = "share"
	OpDocumentComment  DocumentOperation = "comment"
)

// FolderOperation names an intended action on a folder.
type FolderOperation string

const (
	OpFolderView   FolderOperation = "view"
	OpFolderEdit   FolderOperation = "edit"
	OpFolderDelete FolderOperation = "delete"
	OpFolderManage FolderOperation = "manage"
)

// Authorizer is the single decision point for every read/write/share/delete on
// documents and folders. It holds no mutable state: each decision is a pure
// function over the actor, the resource, and the grants fetched for that
// decision. Call sites must not re-implement role or ownership checks.
//
// Evaluation order (short-circuits on first match, by policy):
//  1. unauthenticated -> deny
//  2. superuser -> allow
//  3. inactive profile -> deny (overrides ownership)
//  4. ownership, gated by role for mutating operations
//  5. explicit unexpired grant
//  6. deny
type Authorizer struct {
	grants   port.GrantRepository
	now      func() time.Time
	observer DecisionObserver
}

// DecisionObserver receives the outcome of every document and folder
// decision, typically for metrics.
type DecisionObserver interface {
	ObserveDecision(resourceType, operation string, allowed bool)
}

// NewAuthorizer constructs an Authorizer over the given grant store.
func NewAuthorizer(grants port.GrantRepository) *Authorizer {
	return &Authorizer{grants: grants, now: time.Now}
}

// WithClock overrides the time source. Intended for tests.
func (a *Authorizer) WithClock(now func() time.Time) *Authorizer {
	if now != nil {
		a.now = now
	}
	return a
}

// WithObserver attaches a decision observer.
func (a *Authorizer) WithObserver(observer DecisionObserver) *Authorizer {
	a.observer = observer
	return a
}

func (a *Authorizer) observe(resourceType string, operation string, allowed bool) {
	if a.observer != nil {
		a.observer.ObserveDecision(resourceType, operation, allowed)
	}
}

// DecideDocument reports whether the actor may perform op on the document.
// A false result is a plain deny; the error return is reserved for integrity
// failures (dangling owner) and storage errors.
func (a *Authorizer) DecideDocument(ctx context.Context, actor *domain.Actor, doc *domain.Document, op DocumentOperation) (bool, error) {
	allowed, err := a.decideDocument(ctx, actor, doc, op)
	if err == nil {
		a.observe(string(domain.ResourceDocument), string(op), allowed)
	}
	return allowed, err
}

func (a *Authorizer) decideDocument(ctx context.Context, actor *domain.Actor, doc *domain.Document, op DocumentOperation) (bool, error) {
	if !actor.Authenticated() {
		return false, nil
	}
	if actor.IsSuperuser {
		return true, nil
	}

	role, active := actor.ActiveRole()
	if !active {
		return false, nil
	}

	if doc == nil {
		return false, fmt.Errorf("decide document: nil document: %w", ErrIntegrity)
	}
	if doc.OwnerID == "" {
		return false, fmt.Errorf("document %s has dangling owner: %w", doc.ID, ErrIntegrity)
	}

	if doc.OwnerID == actor.ID {
		switch op {
		case OpDocumentView, OpDocumentDownload, OpDocumentComment:
			return true, nil
		case OpDocumentEdit, OpDocumentDelete, OpDocumentShare:
			if role.CanMutateOwned() {
				return true, nil
			}
			// A reader who owns the document may still hold an explicit
			// grant, so fall through to the grant check.
		}
	}

	kinds, err := a.grants.ActiveKinds(ctx, actor.ID, domain.DocumentRef(doc.ID), a.now())
	if err != nil {
		return false, fmt.Errorf("load grants: %w", err)
	}

	return documentGrantSatisfies(kinds, op), nil
}

// DecideFolder reports whether the actor may perform op on the folder.
func (a *Authorizer) DecideFolder(ctx context.Context, actor *domain.Actor, folder *domain.Folder, op FolderOperation) (bool, error) {
	allowed, err := a.decideFolder(ctx, actor, folder, op)
	if err == nil {
		a.observe(string(domain.ResourceFolder), string(op), allowed)
	}
	return allowed, err
}

func (a *Authorizer) decideFolder(ctx context.Context, actor *domain.Actor, folder *domain.Folder, op FolderOperation) (bool, error) {
	if !actor.Authenticated() {
		return false, nil
	}
	if actor.IsSuperuser {
		return true, nil
	}

	role, active := actor.ActiveRole()
	if !active {
		return false, nil
	}

	if folder == nil {
		return false, fmt.Errorf("decide folder: nil folder: %w", ErrIntegrity)
	}
	if folder.OwnerID == "" {
		return false, fmt.Errorf("folder %s has dangling owner: %w", folder.ID, ErrIntegrity)
	}

	if folder.OwnerID == actor.ID {
		switch op {
		case OpFolderView:
			return true, nil
		case OpFolderEdit, OpFolderDelete, OpFolderManage:
			if role.CanMutateOwned() {
				return true, nil
			}
		}
	}

	kinds, err := a.grants.ActiveKinds(ctx, actor.ID, domain.FolderRef(folder.ID), a.now())
	if err != nil {
		return false, fmt.Errorf("load grants: %w", err)
	}

	return folderGrantSatisfies(kinds, op), nil
}

// CanCreateDocument reports whether the actor may create documents at all.
// Creation has no target resource, so only role defaults apply.
func (a *Authorizer) CanCreateDocument(actor *domain.Actor) bool {
	return a.canCreate(actor)
}

// CanCreateFolder reports whether the actor may create folders.
func (a *Authorizer) CanCreateFolder(actor *domain.Actor) bool {
	return a.canCreate(actor)
}

func (a *Authorizer) canCreate(actor *domain.Actor) bool {
	if !actor.Authenticated() {
		return false
	}
	if actor.IsSuperuser {
		return true
	}
	role, active := actor.ActiveRole()
	if !active {
		return false
	}
	return role.CanMutateOwned()
}

// RequireDocument converts a document decision into the error taxonomy:
// ErrUnauthorized for unauthenticated actors, ErrForbidden for denies.
func (a *Authorizer) RequireDocument(ctx context.Context, actor *domain.Actor, doc *domain.Document, op DocumentOperation) error {
	if !actor.Authenticated() {
		return ErrUnauthorized
	}
	allowed, err := a.DecideDocument(ctx, actor, doc, op)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

// RequireFolder converts a folder decision into the error taxonomy.
func (a *Authorizer) RequireFolder(ctx context.Context, actor *domain.Actor, folder *domain.Folder, op FolderOperation) error {
	if !actor.Authenticated() {
		return ErrUnauthorized
	}
	allowed, err := a.DecideFolder(ctx, actor, folder, op)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

// documentGrantSatisfies maps a document operation onto the grant kinds that
// permit it. Download is implied by browse; an explicit comment grant also
// implies enough visibility to comment.
func documentGrantSatisfies(kinds domain.GrantSet, op DocumentOperation) bool {
	switch op {
	case OpDocumentView:
		return kinds.Has(domain.PermBrowse) || kinds.Has(domain.PermDownload)
	case OpDocumentDownload:
		return kinds.Has(domain.PermBrowse) || kinds.Has(domain.PermDownload)
	case OpDocumentEdit:
		return kinds.Has(domain.PermChange)
	case OpDocumentDelete:
		return kinds.Has(domain.PermDelete)
	case OpDocumentShare:
		return kinds.Has(domain.PermShare)
	case OpDocumentComment:
		return kinds.Has(domain.PermComment) || kinds.Has(domain.PermBrowse) || kinds.Has(domain.PermDownload)
	}
	return false
}

// folderGrantSatisfies maps a folder operation onto grant kinds. Manage
// supersedes change for permission-administration actions.
func folderGrantSatisfies(kinds domain.GrantSet, op FolderOperation) bool {
	switch op {
	case OpFolderView:
		return kinds.Has(domain.PermBrowse) || kinds.Has(domain.PermManage)
	case OpFolderEdit:
		return kinds.Has(domain.PermChange) || kinds.Has(domain.PermManage)
	case OpFolderDelete:
		return kinds.Has(domain.PermDelete) || kinds.Has(domain.PermManage)
	case OpFolderManage:
		return kinds.Has(domain.PermManage)
	}
	return false
}
