package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pwysocki/docvault/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DocumentPayload is the API view of a document.
type DocumentPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	OwnerID     string    `json:"owner_id"`
	FolderID    string    `json:"folder_id,omitempty"`
	Status      string    `json:"status"`
	Tags        []string  `json:"tags,omitempty"`
	ContentHash string    `json:"content_hash"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

func toDocumentPayload(doc *domain.Document) DocumentPayload {
	return DocumentPayload{
		ID:          doc.ID,
		Name:        doc.Name,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		OwnerID:     doc.OwnerID,
		FolderID:    doc.FolderID,
		Status:      string(doc.Status),
		Tags:        doc.Tags,
		ContentHash: doc.ContentHash,
		Description: doc.Description,
		CreatedAt:   doc.CreatedAt,
		ModifiedAt:  doc.ModifiedAt,
	}
}

// DocumentCreateRequest defines the payload for creating a document.
type DocumentCreateRequest struct {
	Name        string   `json:"name" binding:"required"`
	ContentType string   `json:"content_type"`
	Content     []byte   `json:"content"`
	FolderID    string   `json:"folder_id" binding:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// DocumentUpdateRequest carries mutable document metadata.
type DocumentUpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// DocumentListResponse wraps a page of documents.
type DocumentListResponse struct {
	Documents []DocumentPayload `json:"documents"`
}

// DownloadResponse returns the document alongside its latest version.
type DownloadResponse struct {
	Document DocumentPayload `json:"document"`
	Version  VersionPayload  `json:"version"`
}

// VersionPayload is the API view of a document version.
type VersionPayload struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Number      int       `json:"number"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentHash string    `json:"content_hash"`
	Comment     string    `json:"comment,omitempty"`
}

func toVersionPayload(v *domain.DocumentVersion) VersionPayload {
	return VersionPayload{
		ID:          v.ID,
		DocumentID:  v.DocumentID,
		Number:      v.Number,
		CreatedBy:   v.CreatedBy,
		CreatedAt:   v.CreatedAt,
		SizeBytes:   v.SizeBytes,
		ContentHash: v.ContentHash,
		Comment:     v.Comment,
	}
}

// VersionUploadRequest carries the payload for appending a version.
type VersionUploadRequest struct {
	Content []byte `json:"content" binding:"required"`
	Comment string `json:"comment"`
}

// VersionListResponse wraps a document's version history.
type VersionListResponse struct {
	Versions []VersionPayload `json:"versions"`
}

// TagsRequest replaces a document's tag set.
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// CommentPayload is the API view of a comment.
type CommentPayload struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	AuthorID   string    `json:"author_id"`
	Body       string    `json:"body"`
	ParentID   *string   `json:"parent_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCommentPayload(comment *domain.Comment) CommentPayload {
	return CommentPayload{
		ID:         comment.ID,
		DocumentID: comment.DocumentID,
		AuthorID:   comment.AuthorID,
		Body:       comment.Body,
		ParentID:   comment.ParentID,
		CreatedAt:  comment.CreatedAt,
	}
}

// CommentCreateRequest carries a comment payload.
type CommentCreateRequest struct {
	Body     string  `json:"body" binding:"required"`
	ParentID *string `json:"parent_id"`
}

// CommentListResponse wraps a document's comments.
type CommentListResponse struct {
	Comments []CommentPayload `json:"comments"`
}

// FolderPayload is the API view of a folder.
type FolderPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	ParentID    *string   `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toFolderPayload(folder *domain.Folder) FolderPayload {
	return FolderPayload{
		ID:          folder.ID,
		Name:        folder.Name,
		Description: folder.Description,
		OwnerID:     folder.OwnerID,
		ParentID:    folder.ParentID,
		CreatedAt:   folder.CreatedAt,
	}
}

// FolderCreateRequest defines the payload for creating a folder.
type FolderCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	ParentID    *string `json:"parent_id"`
}

// FolderUpdateRequest carries mutable folder metadata.
type FolderUpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FolderDeleteRequest selects the disposition strategy for a folder deletion.
type FolderDeleteRequest struct {
	Strategy string  `json:"strategy" binding:"required"`
	TargetID *string `json:"target_id"`
}

// FolderDeleteResponse reports what the deletion did to the folder's children.
type FolderDeleteResponse struct {
	Strategy       string `json:"strategy"`
	MovedDocuments int    `json:"moved_documents"`
	MovedFolders   int    `json:"moved_folders"`
}

// FolderListResponse wraps a set of folders.
type FolderListResponse struct {
	Folders []FolderPayload `json:"folders"`
}

// ShareRequest grants a user access to a resource.
type ShareRequest struct {
	ResourceType string     `json:"resource_type" binding:"required"`
	ResourceID   string     `json:"resource_id" binding:"required"`
	TargetUserID string     `json:"target_user_id" binding:"required"`
	Kind         string     `json:"kind" binding:"required"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// UnshareRequest revokes all of a user's grants on a resource.
type UnshareRequest struct {
	ResourceType string `json:"resource_type" binding:"required"`
	ResourceID   string `json:"resource_id" binding:"required"`
	TargetUserID string `json:"target_user_id" binding:"required"`
}

// GrantPayload is the API view of a permission grant.
type GrantPayload struct {
	ID           string     `json:"id"`
	SubjectID    string     `json:"subject_id"`
	ResourceType string     `json:"resource_type"`
	ResourceID   string     `json:"resource_id"`
	Kind         string     `json:"kind"`
	GrantedBy    string     `json:"granted_by"`
	GrantedAt    time.Time  `json:"granted_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Active       bool       `json:"active"`
}

func toGrantPayload(grant domain.PermissionGrant) GrantPayload {
	return GrantPayload{
		ID:           grant.ID,
		SubjectID:    grant.SubjectID,
		ResourceType: string(grant.ResourceType),
		ResourceID:   grant.ResourceID,
		Kind:         string(grant.Kind),
		GrantedBy:    grant.GrantedBy,
		GrantedAt:    grant.GrantedAt,
		ExpiresAt:    grant.ExpiresAt,
		Active:       grant.Active,
	}
}

// GrantListResponse wraps the grants on a resource.
type GrantListResponse struct {
	Grants []GrantPayload `json:"grants"`
}

// ActiveKindsResponse lists the permission kinds a subject holds on a
// resource.
type ActiveKindsResponse struct {
	SubjectID string   `json:"subject_id"`
	Kinds     []string `json:"kinds"`
}

// ActivityPayload is the API view of an audit record.
type ActivityPayload struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	DocumentID *string   `json:"document_id,omitempty"`
	FolderID   *string   `json:"folder_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	OriginIP   string    `json:"origin_ip,omitempty"`
}

func toActivityPayload(entry domain.ActivityLogEntry) ActivityPayload {
	return ActivityPayload{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Action:     string(entry.Action),
		DocumentID: entry.DocumentID,
		FolderID:   entry.FolderID,
		Detail:     entry.Detail,
		OccurredAt: entry.OccurredAt,
		OriginIP:   entry.OriginIP,
	}
}

// ActivityListResponse wraps a page of audit records.
type ActivityListResponse struct {
	Entries []ActivityPayload `json:"entries"`
}

// UserPayload is the API view of a user account.
type UserPayload struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	IsSuperuser  bool      `json:"is_superuser"`
	RegisteredAt time.Time `json:"registered_at"`
}

func toUserPayload(user *domain.User) UserPayload {
	return UserPayload{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		IsSuperuser:  user.IsSuperuser,
		RegisteredAt: user.RegisteredAt,
	}
}

// UserProvisionRequest defines the payload for creating an account.
type UserProvisionRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	IsSuperuser bool   `json:"is_superuser"`
	Role        string `json:"role"`
}

// RoleChangeRequest replaces a user's role.
type RoleChangeRequest struct {
	Role string `json:"role" binding:"required"`
}

// ActiveChangeRequest toggles a user's active flag.
type ActiveChangeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// TokenRequest exchanges a username for an access token.
type TokenRequest struct {
	Username string `json:"username" binding:"required"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
