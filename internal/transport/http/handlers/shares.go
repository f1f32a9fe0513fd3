package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/transport/http/middleware"
	"github.com/pwysocki/docvault/internal/usecase"
)

// ShareHandler exposes the sharing workflow over HTTP.
type ShareHandler struct {
	sharing *usecase.SharingService
}

// NewShareHandler builds a share handler.
func NewShareHandler(sharing *usecase.SharingService) *ShareHandler {
	return &ShareHandler{sharing: sharing}
}

// RegisterRoutes attaches sharing endpoints to the group. Share carries extra
// middleware so the rate limiter applies only there.
func (h *ShareHandler) RegisterRoutes(r *gin.RouterGroup, shareMiddlewares ...gin.HandlerFunc) {
	shareHandlers := append([]gin.HandlerFunc{}, shareMiddlewares...)
	shareHandlers = append(shareHandlers, h.Share)
	r.POST("", shareHandlers...)

	r.POST("/revoke", h.Unshare)
	r.GET("", h.ListGrants)
	r.GET("/subject", h.ActiveKinds)
}

var shareErrorCases = []ErrorCase{
	{Err: usecase.ErrUnauthorized, Status: http.StatusUnauthorized, Message: "authentication required"},
	{Err: usecase.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
	{Err: usecase.ErrNotFound, Status: http.StatusNotFound, Message: "resource or user not found"},
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid share request"},
	{Err: usecase.ErrIntegrity, Status: http.StatusInternalServerError, Message: "inconsistent resource state"},
}

func resourceFromStrings(resourceType, resourceID string) (domain.ResourceRef, bool) {
	switch domain.ResourceType(resourceType) {
	case domain.ResourceDocument:
		return domain.DocumentRef(resourceID), true
	case domain.ResourceFolder:
		return domain.FolderRef(resourceID), true
	}
	return domain.ResourceRef{}, false
}

// Share grants a permission kind to a user, replacing any prior grants the
// user held on the resource.
func (h *ShareHandler) Share(c *gin.Context) {
	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid share payload"))
		return
	}

	resource, ok := resourceFromStrings(req.ResourceType, req.ResourceID)
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown resource type"))
		return
	}

	actor := middleware.GetActor(c)
	err := h.sharing.Share(c.Request.Context(), actor, usecase.ShareInput{
		Resource:     resource,
		TargetUserID: req.TargetUserID,
		Kind:         domain.PermissionKind(req.Kind),
		ExpiresAt:    req.ExpiresAt,
		OriginIP:     c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, shareErrorCases, http.StatusInternalServerError, "failed to share resource")
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "resource shared"})
}

// Unshare revokes every grant the target user holds on the resource.
func (h *ShareHandler) Unshare(c *gin.Context) {
	var req UnshareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid revoke payload"))
		return
	}

	resource, ok := resourceFromStrings(req.ResourceType, req.ResourceID)
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown resource type"))
		return
	}

	actor := middleware.GetActor(c)
	err := h.sharing.Unshare(c.Request.Context(), actor, usecase.UnshareInput{
		Resource:     resource,
		TargetUserID: req.TargetUserID,
		OriginIP:     c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, shareErrorCases, http.StatusInternalServerError, "failed to revoke share")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "share revoked"})
}

// ListGrants returns every grant on a resource, active and inactive.
func (h *ShareHandler) ListGrants(c *gin.Context) {
	resource, ok := resourceFromStrings(c.Query("resource_type"), c.Query("resource_id"))
	if !ok || resource.ID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "resource_type and resource_id are required"))
		return
	}

	actor := middleware.GetActor(c)
	grants, err := h.sharing.ListGrants(c.Request.Context(), actor, resource)
	if err != nil {
		RespondWithMappedError(c, err, shareErrorCases, http.StatusInternalServerError, "failed to list grants")
		return
	}

	payloads := make([]GrantPayload, 0, len(grants))
	for _, grant := range grants {
		payloads = append(payloads, toGrantPayload(grant))
	}

	c.JSON(http.StatusOK, GrantListResponse{Grants: payloads})
}

// ActiveKinds returns the unexpired permission kinds a subject holds on a
// resource.
func (h *ShareHandler) ActiveKinds(c *gin.Context) {
	resource, ok := resourceFromStrings(c.Query("resource_type"), c.Query("resource_id"))
	if !ok || resource.ID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "resource_type and resource_id are required"))
		return
	}

	subjectID := c.Query("subject_id")
	if subjectID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "subject_id is required"))
		return
	}

	actor := middleware.GetActor(c)
	kinds, err := h.sharing.ActiveGrantsFor(c.Request.Context(), actor, subjectID, resource)
	if err != nil {
		RespondWithMappedError(c, err, shareErrorCases, http.StatusInternalServerError, "failed to list subject grants")
		return
	}

	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, string(kind))
	}

	c.JSON(http.StatusOK, ActiveKindsResponse{SubjectID: subjectID, Kinds: names})
}
