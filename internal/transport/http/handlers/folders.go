package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/transport/http/middleware"
	"github.com/pwysocki/docvault/internal/usecase"
)

// FolderHandler exposes the folder tree over HTTP.
type FolderHandler struct {
	folders *usecase.FolderService
}

// NewFolderHandler builds a folder handler.
func NewFolderHandler(folders *usecase.FolderService) *FolderHandler {
	return &FolderHandler{folders: folders}
}

// RegisterRoutes attaches folder endpoints to the group.
func (h *FolderHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Create)
	r.GET("", h.ListOwned)
	r.GET("/:id", h.Get)
	r.GET("/:id/children", h.ListChildren)
	r.PATCH("/:id", h.UpdateMetadata)
	r.DELETE("/:id", h.Delete)
}

var folderErrorCases = []ErrorCase{
	{Err: usecase.ErrUnauthorized, Status: http.StatusUnauthorized, Message: "authentication required"},
	{Err: usecase.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
	{Err: usecase.ErrNotFound, Status: http.StatusNotFound, Message: "folder not found"},
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid request"},
	{Err: usecase.ErrReassignmentConflict, Status: http.StatusConflict, Message: "child reassignment conflicts with existing names"},
	{Err: usecase.ErrIntegrity, Status: http.StatusInternalServerError, Message: "inconsistent resource state"},
}

// Create adds a folder, optionally under a parent.
func (h *FolderHandler) Create(c *gin.Context) {
	var req FolderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid folder payload"))
		return
	}

	actor := middleware.GetActor(c)
	folder, err := h.folders.Create(c.Request.Context(), actor, usecase.CreateFolderInput{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ParentID:    req.ParentID,
		OriginIP:    c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, folderErrorCases, http.StatusInternalServerError, "failed to create folder")
		return
	}

	c.JSON(http.StatusCreated, toFolderPayload(folder))
}

// ListOwned returns the caller's folders.
func (h *FolderHandler) ListOwned(c *gin.Context) {
	actor := middleware.GetActor(c)

	folders, err := h.folders.ListOwned(c.Request.Context(), actor)
	if err != nil {
		RespondWithMappedError(c, err, folderErrorCases, http.StatusInternalServerError, "failed to list folders")
		return
	}

	payloads := make([]FolderPayload, 0, len(folders))
	for i := range folders {
		payloads = append(payloads, toFolderPayload(&folders[i]))
	}

	c.JSON(http.StatusOK, FolderListResponse{Folders: payloads})
}

// Get returns a single folder.
func (h *FolderHandler) Get(c *gin.Context) {
	actor := middleware.GetActor(c)

	folder, err := h.folders.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, folderErrorCases, http.StatusInternalServerError, "failed to load folder")
		return
	}

	c.JSON(http.StatusOK, toFolderPayload(folder))
}

// ListChildren returns the folder's direct child folders.
func (h *FolderHandler) ListChildren(c *gin.Context) {
	actor := middleware.GetActor(c)

	children, err := h.folders.ListChildren(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, folderErrorCases, http.StatusInternalServerError, "failed to list children")
		return
	}

	payloads := make([]FolderPayload, 0, len(children))
	for i := range children {
		payloads = append(payloads, toFolderPayload(&children[i]))
	}

	c.JSON(http.StatusOK, FolderListResponse{Folders: payloads})
}

// UpdateMetadata edits the folder's name or description.
func (h *FolderHandler) UpdateMetadata(c *gin.Context) {
	var req FolderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid folder payload"))
		return
	}

	actor := middleware.GetActor(c)
	folder, err := h.folders.UpdateMetadata(c.Request.Context(), actor, c.Param("id"), usecase.UpdateFolderInput{
		Name:        req.Name,
		Description: req.Description,
		OriginIP:    c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, folderErrorCases, http.StatusInternalServerError, "failed to update folder")
		return
	}

	c.JSON(http.StatusOK, toFolderPayload(folder))
}

// Delete removes the folder, dispatching its direct children per the
// requested strategy. The deletion is atomic.
func (h *FolderHandler) Delete(c *gin.Context) {
	var req FolderDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid deletion payload"))
		return
	}

	actor := middleware.GetActor(c)
	result, err := h.folders.Delete(c.Request.Context(), actor, c.Param("id"), usecase.DeleteFolderInput{
		Strategy: domain.FolderDeletionStrategy(req.Strategy),
		TargetID: req.TargetID,
		OriginIP: c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, folderErrorCases, http.StatusInternalServerError, "failed to delete folder")
		return
	}

	c.JSON(http.StatusOK, FolderDeleteResponse{
		Strategy:       string(result.Strategy),
		MovedDocuments: result.MovedDocuments,
		MovedFolders:   result.MovedFolders,
	})
}
