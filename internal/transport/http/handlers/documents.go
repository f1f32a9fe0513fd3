package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/core/port"
	"github.com/pwysocki/docvault/internal/transport/http/middleware"
	"github.com/pwysocki/docvault/internal/usecase"
)

// DocumentHandler exposes the document lifecycle over HTTP.
type DocumentHandler struct {
	documents      *usecase.DocumentService
	activity       *usecase.ActivityService
	maxUploadBytes int64
}

// NewDocumentHandler builds a document handler. A non-positive maxUploadBytes
// disables the content size check.
func NewDocumentHandler(documents *usecase.DocumentService, activity *usecase.ActivityService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, activity: activity, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches document endpoints to the group. Download and
// version upload carry extra middleware so the rate limiters apply only there.
func (h *DocumentHandler) RegisterRoutes(r *gin.RouterGroup, downloadMiddlewares, uploadMiddlewares []gin.HandlerFunc) {
	r.POST("", h.Create)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.PATCH("/:id", h.UpdateMetadata)
	r.DELETE("/:id", h.Delete)

	downloadHandlers := append([]gin.HandlerFunc{}, downloadMiddlewares...)
	downloadHandlers = append(downloadHandlers, h.Download)
	r.GET("/:id/download", downloadHandlers...)

	uploadHandlers := append([]gin.HandlerFunc{}, uploadMiddlewares...)
	uploadHandlers = append(uploadHandlers, h.UploadVersion)
	r.POST("/:id/versions", uploadHandlers...)
	r.GET("/:id/versions", h.ListVersions)
	r.DELETE("/:id/versions/:number", h.DeleteVersion)

	r.PUT("/:id/tags", h.SetTags)

	r.POST("/:id/comments", h.AddComment)
	r.GET("/:id/comments", h.ListComments)

	r.GET("/:id/activity", h.Activity)
}

var documentErrorCases = []ErrorCase{
	{Err: usecase.ErrUnauthorized, Status: http.StatusUnauthorized, Message: "authentication required"},
	{Err: usecase.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
	{Err: usecase.ErrNotFound, Status: http.StatusNotFound, Message: "document not found"},
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid request"},
	{Err: usecase.ErrIntegrity, Status: http.StatusInternalServerError, Message: "inconsistent resource state"},
}

// Create stores a new document with its first version.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req DocumentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid document payload"))
		return
	}

	if h.contentTooLarge(c, req.Content) {
		return
	}

	actor := middleware.GetActor(c)
	doc, err := h.documents.Create(c.Request.Context(), actor, usecase.CreateDocumentInput{
		Name:        strings.TrimSpace(req.Name),
		ContentType: req.ContentType,
		Content:     req.Content,
		FolderID:    req.FolderID,
		Description: req.Description,
		Tags:        req.Tags,
		OriginIP:    c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to create document")
		return
	}

	c.JSON(http.StatusCreated, toDocumentPayload(doc))
}

// List returns documents matching the query filters.
func (h *DocumentHandler) List(c *gin.Context) {
	actor := middleware.GetActor(c)

	filter := port.DocumentFilter{
		OwnerID: c.Query("owner_id"),
	}
	if folderID := c.Query("folder_id"); folderID != "" {
		filter.FolderID = &folderID
	}

	if status := c.Query("status"); status != "" {
		filter.Status = domain.DocumentStatus(status)
		if !filter.Status.Valid() {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid status filter"))
			return
		}
	}

	if c.Query("include_deleted") == "true" {
		filter.IncludeDeleted = true
	}

	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid limit"))
			return
		}
		filter.Limit = n
	}

	if offset := c.Query("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid offset"))
			return
		}
		filter.Offset = n
	}

	docs, err := h.documents.List(c.Request.Context(), actor, filter)
	if err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to list documents")
		return
	}

	payloads := make([]DocumentPayload, 0, len(docs))
	for i := range docs {
		payloads = append(payloads, toDocumentPayload(&docs[i]))
	}

	c.JSON(http.StatusOK, DocumentListResponse{Documents: payloads})
}

// Get returns a single document's metadata.
func (h *DocumentHandler) Get(c *gin.Context) {
	actor := middleware.GetActor(c)

	doc, err := h.documents.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to load document")
		return
	}

	c.JSON(http.StatusOK, toDocumentPayload(doc))
}

// Download returns the document with its latest version and records the
// access in the audit log.
func (h *DocumentHandler) Download(c *gin.Context) {
	actor := middleware.GetActor(c)

	doc, version, err := h.documents.Download(c.Request.Context(), actor, c.Param("id"), c.ClientIP())
	if err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to download document")
		return
	}

	c.JSON(http.StatusOK, DownloadResponse{
		Document: toDocumentPayload(doc),
		Version:  toVersionPayload(version),
	})
}

// UpdateMetadata edits the document's name, description, or status.
func (h *DocumentHandler) UpdateMetadata(c *gin.Context) {
	var req DocumentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid document payload"))
		return
	}

	actor := middleware.GetActor(c)
	doc, err := h.documents.UpdateMetadata(c.Request.Context(), actor, c.Param("id"), usecase.UpdateDocumentInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.DocumentStatus(req.Status),
		OriginIP:    c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to update document")
		return
	}

	c.JSON(http.StatusOK, toDocumentPayload(doc))
}

// Delete soft-deletes the document.
func (h *DocumentHandler) Delete(c *gin.Context) {
	actor := middleware.GetActor(c)

	if err := h.documents.SoftDelete(c.Request.Context(), actor, c.Param("id"), c.ClientIP()); err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to delete document")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "document deleted"})
}

// UploadVersion appends a new content version.
func (h *DocumentHandler) UploadVersion(c *gin.Context) {
	var req VersionUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid version payload"))
		return
	}

	if h.contentTooLarge(c, req.Content) {
		return
	}

	actor := middleware.GetActor(c)
	version, err := h.documents.UploadVersion(c.Request.Context(), actor, c.Param("id"), usecase.UploadVersionInput{
		Content:  req.Content,
		Comment:  req.Comment,
		OriginIP: c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to upload version")
		return
	}

	c.JSON(http.StatusCreated, toVersionPayload(version))
}

func (h *DocumentHandler) contentTooLarge(c *gin.Context, content []byte) bool {
	if h.maxUploadBytes > 0 && int64(len(content)) > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse(c, "content exceeds the maximum upload size"))
		return true
	}
	return false
}

// ListVersions returns the document's version history, newest first.
func (h *DocumentHandler) ListVersions(c *gin.Context) {
	actor := middleware.GetActor(c)

	versions, err := h.documents.ListVersions(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to list versions")
		return
	}

	payloads := make([]VersionPayload, 0, len(versions))
	for i := range versions {
		payloads = append(payloads, toVersionPayload(&versions[i]))
	}

	c.JSON(http.StatusOK, VersionListResponse{Versions: payloads})
}

// DeleteVersion removes a single version. Its number is never reused.
func (h *DocumentHandler) DeleteVersion(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid version number"))
		return
	}

	actor := middleware.GetActor(c)
	if err := h.documents.DeleteVersion(c.Request.Context(), actor, c.Param("id"), number, c.ClientIP()); err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to delete version")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "version deleted"})
}

// SetTags replaces the document's tag set.
func (h *DocumentHandler) SetTags(c *gin.Context) {
	var req TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid tags payload"))
		return
	}

	actor := middleware.GetActor(c)
	if err := h.documents.SetTags(c.Request.Context(), actor, c.Param("id"), req.Tags, c.ClientIP()); err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to set tags")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "tags updated"})
}

// AddComment attaches a comment to the document.
func (h *DocumentHandler) AddComment(c *gin.Context) {
	var req CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid comment payload"))
		return
	}

	actor := middleware.GetActor(c)
	comment, err := h.documents.AddComment(c.Request.Context(), actor, c.Param("id"), usecase.AddCommentInput{
		Body:     req.Body,
		ParentID: req.ParentID,
		OriginIP: c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to add comment")
		return
	}

	c.JSON(http.StatusCreated, toCommentPayload(comment))
}

// ListComments returns the document's comments.
func (h *DocumentHandler) ListComments(c *gin.Context) {
	actor := middleware.GetActor(c)

	comments, err := h.documents.ListComments(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to list comments")
		return
	}

	payloads := make([]CommentPayload, 0, len(comments))
	for i := range comments {
		payloads = append(payloads, toCommentPayload(&comments[i]))
	}

	c.JSON(http.StatusOK, CommentListResponse{Comments: payloads})
}

// Activity returns the audit trail for a document. Superuser only.
func (h *DocumentHandler) Activity(c *gin.Context) {
	actor := middleware.GetActor(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid limit"))
			return
		}
		limit = n
	}

	entries, err := h.activity.ForDocument(c.Request.Context(), actor, c.Param("id"), limit)
	if err != nil {
		RespondWithMappedError(c, err, documentErrorCases, http.StatusInternalServerError, "failed to list activity")
		return
	}

	payloads := make([]ActivityPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, toActivityPayload(entry))
	}

	c.JSON(http.StatusOK, ActivityListResponse{Entries: payloads})
}
