package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/core/port"
	"github.com/pwysocki/docvault/internal/repository"
)

// In-memory fakes shared by the service tests. They implement the port
// interfaces with map-backed state so tests can assert on what was written.

type memGrants struct {
	grants []domain.PermissionGrant
	err    error
}

func (m *memGrants) Upsert(_ context.Context, grant domain.PermissionGrant) error {
	if m.err != nil {
		return m.err
	}
	m.grants = append(m.grants, grant)
	return nil
}

func (m *memGrants) Revoke(_ context.Context, subjectID string, resource domain.ResourceRef, kind domain.PermissionKind) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.grants {
		g := &m.grants[i]
		if g.Active && g.SubjectID == subjectID && g.ResourceType == resource.Type && g.ResourceID == resource.ID && g.Kind == kind {
			g.Active = false
		}
	}
	return nil
}

func (m *memGrants) RevokeAll(_ context.Context, subjectID string, resource domain.ResourceRef) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	revoked := 0
	for i := range m.grants {
		g := &m.grants[i]
		if g.Active && g.SubjectID == subjectID && g.ResourceType == resource.Type && g.ResourceID == resource.ID {
			g.Active = false
			revoked++
		}
	}
	return revoked, nil
}

func (m *memGrants) ActiveKinds(_ context.Context, subjectID string, resource domain.ResourceRef, now time.Time) (domain.GrantSet, error) {
	if m.err != nil {
		return nil, m.err
	}
	set := make(domain.GrantSet)
	for _, g := range m.grants {
		if !g.Active || g.SubjectID != subjectID || g.ResourceType != resource.Type || g.ResourceID != resource.ID {
			continue
		}
		if g.Expired(now) {
			continue
		}
		set[g.Kind] = struct{}{}
	}
	return set, nil
}

func (m *memGrants) ListForResource(_ context.Context, resource domain.ResourceRef) ([]domain.PermissionGrant, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.PermissionGrant
	for _, g := range m.grants {
		if g.Active && g.ResourceType == resource.Type && g.ResourceID == resource.ID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memGrants) activeFor(subjectID string, resource domain.ResourceRef) []domain.PermissionGrant {
	var out []domain.PermissionGrant
	for _, g := range m.grants {
		if g.Active && g.SubjectID == subjectID && g.ResourceType == resource.Type && g.ResourceID == resource.ID {
			out = append(out, g)
		}
	}
	return out
}

type memDocuments struct {
	docs map[string]domain.Document
}

func newMemDocuments() *memDocuments {
	return &memDocuments{docs: make(map[string]domain.Document)}
}

func (m *memDocuments) Create(_ context.Context, doc domain.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *memDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok || doc.Deleted {
		return nil, repository.ErrNotFound
	}
	copy := doc
	return &copy, nil
}

func (m *memDocuments) GetAny(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := doc
	return &copy, nil
}

func (m *memDocuments) Update(_ context.Context, doc domain.Document) error {
	if _, ok := m.docs[doc.ID]; !ok {
		return repository.ErrNotFound
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *memDocuments) SoftDelete(_ context.Context, id string) error {
	doc, ok := m.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	doc.Deleted = true
	m.docs[id] = doc
	return nil
}

func (m *memDocuments) SetTags(_ context.Context, id string, tags []string) error {
	doc, ok := m.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	doc.Tags = tags
	m.docs[id] = doc
	return nil
}

func (m *memDocuments) List(_ context.Context, filter port.DocumentFilter) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range m.docs {
		if doc.Deleted && !filter.IncludeDeleted {
			continue
		}
		if filter.OwnerID != "" && doc.OwnerID != filter.OwnerID {
			continue
		}
		if filter.FolderID != nil && doc.FolderID != *filter.FolderID {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDocuments) CountByFolder(_ context.Context, folderID string) (int, error) {
	count := 0
	for _, doc := range m.docs {
		if !doc.Deleted && doc.FolderID == folderID {
			count++
		}
	}
	return count, nil
}

type memFolders struct {
	folders   map[string]domain.Folder
	docs      *memDocuments
	deleteErr error
}

func newMemFolders(docs *memDocuments) *memFolders {
	return &memFolders{folders: make(map[string]domain.Folder), docs: docs}
}

func (m *memFolders) Create(_ context.Context, folder domain.Folder) error {
	m.folders[folder.ID] = folder
	return nil
}

func (m *memFolders) GetByID(_ context.Context, id string) (*domain.Folder, error) {
	folder, ok := m.folders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := folder
	return &copy, nil
}

func (m *memFolders) Update(_ context.Context, folder domain.Folder) error {
	if _, ok := m.folders[folder.ID]; !ok {
		return repository.ErrNotFound
	}
	m.folders[folder.ID] = folder
	return nil
}

func (m *memFolders) ListChildren(_ context.Context, parentID *string, ownerID string) ([]domain.Folder, error) {
	var out []domain.Folder
	for _, folder := range m.folders {
		if folder.OwnerID != ownerID {
			continue
		}
		if parentID == nil {
			if folder.ParentID == nil {
				out = append(out, folder)
			}
			continue
		}
		if folder.ParentID != nil && *folder.ParentID == *parentID {
			out = append(out, folder)
		}
	}
	return out, nil
}

func (m *memFolders) ListByOwner(_ context.Context, ownerID string) ([]domain.Folder, error) {
	var out []domain.Folder
	for _, folder := range m.folders {
		if folder.OwnerID == ownerID {
			out = append(out, folder)
		}
	}
	return out, nil
}

func (m *memFolders) DeleteWithDisposition(_ context.Context, folder *domain.Folder, strategy domain.FolderDeletionStrategy, targetID *string) (port.DispositionResult, error) {
	var result port.DispositionResult
	if m.deleteErr != nil {
		return result, m.deleteErr
	}

	switch strategy {
	case domain.DeletionMoveToParent, domain.DeletionMoveToTarget:
		var dest *string
		if strategy == domain.DeletionMoveToParent {
			dest = folder.ParentID
		} else {
			dest = targetID
		}
		for id, child := range m.folders {
			if child.ParentID != nil && *child.ParentID == folder.ID {
				child.ParentID = dest
				m.folders[id] = child
				result.MovedFolders++
			}
		}
		for id, doc := range m.docs.docs {
			if doc.FolderID == folder.ID {
				if dest == nil {
					doc.FolderID = ""
				} else {
					doc.FolderID = *dest
				}
				m.docs.docs[id] = doc
				if !doc.Deleted {
					result.MovedDocuments++
				}
			}
		}
	case domain.DeletionDeleteAll:
		for id, doc := range m.docs.docs {
			if doc.FolderID == folder.ID && !doc.Deleted {
				doc.Deleted = true
				m.docs.docs[id] = doc
				result.MovedDocuments++
			}
		}
		for id, child := range m.folders {
			if child.ParentID != nil && *child.ParentID == folder.ID {
				m.removeSubtree(id)
				result.MovedFolders++
			}
		}
	}

	delete(m.folders, folder.ID)
	return result, nil
}

func (m *memFolders) removeSubtree(folderID string) {
	for id, child := range m.folders {
		if child.ParentID != nil && *child.ParentID == folderID {
			m.removeSubtree(id)
		}
	}
	for id, doc := range m.docs.docs {
		if doc.FolderID == folderID {
			delete(m.docs.docs, id)
		}
	}
	delete(m.folders, folderID)
}

type memVersions struct {
	versions []domain.DocumentVersion
}

func (m *memVersions) Append(_ context.Context, version domain.DocumentVersion) (*domain.DocumentVersion, error) {
	next := 1
	for _, v := range m.versions {
		if v.DocumentID == version.DocumentID && v.Number >= next {
			next = v.Number + 1
		}
	}
	version.Number = next
	m.versions = append(m.versions, version)
	copy := version
	return &copy, nil
}

func (m *memVersions) ListByDocument(_ context.Context, documentID string) ([]domain.DocumentVersion, error) {
	var out []domain.DocumentVersion
	for _, v := range m.versions {
		if v.DocumentID == documentID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memVersions) Delete(_ context.Context, documentID string, number int) error {
	for i, v := range m.versions {
		if v.DocumentID == documentID && v.Number == number {
			m.versions = append(m.versions[:i], m.versions[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memComments struct {
	comments []domain.Comment
}

func (m *memComments) Create(_ context.Context, comment domain.Comment) error {
	m.comments = append(m.comments, comment)
	return nil
}

func (m *memComments) ListByDocument(_ context.Context, documentID string) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range m.comments {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memUsers struct {
	users    map[string]domain.User
	profiles map[string]domain.UserProfile
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]domain.User), profiles: make(map[string]domain.UserProfile)}
}

func (m *memUsers) Create(_ context.Context, user domain.User, profile domain.UserProfile) error {
	if _, ok := m.users[user.ID]; ok {
		return repository.ErrAlreadyExists
	}
	m.users[user.ID] = user
	m.profiles[user.ID] = profile
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := user
	return &copy, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			copy := user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := profile
	return &copy, nil
}

func (m *memUsers) UpdateRole(_ context.Context, userID string, role domain.Role) error {
	profile, ok := m.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	profile.Role = role
	m.profiles[userID] = profile
	return nil
}

func (m *memUsers) SetActive(_ context.Context, userID string, active bool) error {
	profile, ok := m.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	profile.Active = active
	m.profiles[userID] = profile
	return nil
}

type memActivity struct {
	entries []domain.ActivityLogEntry
}

func (m *memActivity) Append(_ context.Context, entry domain.ActivityLogEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memActivity) ListRecent(_ context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	return tail(m.entries, limit), nil
}

func (m *memActivity) ListForDocument(_ context.Context, documentID string, limit int) ([]domain.ActivityLogEntry, error) {
	var out []domain.ActivityLogEntry
	for _, e := range m.entries {
		if e.DocumentID != nil && *e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return tail(out, limit), nil
}

func (m *memActivity) ListForActor(_ context.Context, actorID string, limit int) ([]domain.ActivityLogEntry, error) {
	var out []domain.ActivityLogEntry
	for _, e := range m.entries {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return tail(out, limit), nil
}

func tail(entries []domain.ActivityLogEntry, limit int) []domain.ActivityLogEntry {
	if limit > 0 && len(entries) > limit {
		return entries[len(entries)-limit:]
	}
	return entries
}

type recordingPublisher struct {
	shared    []domain.ResourceSharedEvent
	revoked   []domain.ShareRevokedEvent
	docDels   []domain.DocumentDeletedEvent
	folderDel []domain.FolderDeletedEvent
	versions  []domain.VersionUploadedEvent
	err       error
}

func (p *recordingPublisher) PublishResourceShared(_ context.Context, event domain.ResourceSharedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.shared = append(p.shared, event)
	return nil
}

func (p *recordingPublisher) PublishShareRevoked(_ context.Context, event domain.ShareRevokedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.revoked = append(p.revoked, event)
	return nil
}

func (p *recordingPublisher) PublishDocumentDeleted(_ context.Context, event domain.DocumentDeletedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.docDels = append(p.docDels, event)
	return nil
}

func (p *recordingPublisher) PublishFolderDeleted(_ context.Context, event domain.FolderDeletedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.folderDel = append(p.folderDel, event)
	return nil
}

func (p *recordingPublisher) PublishVersionUploaded(_ context.Context, event domain.VersionUploadedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.versions = append(p.versions, event)
	return nil
}

func actorWith(id string, role domain.Role, active bool) *domain.Actor {
	return &domain.Actor{
		ID: id,
		Profile: &domain.UserProfile{
			UserID: id,
			Role:   role,
			Active: active,
		},
	}
}

func superuserActor(id string) *domain.Actor {
	return &domain.Actor{ID: id, IsSuperuser: true}
}
