package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pwysocki/docvault/internal/transport/http/middleware"
	"github.com/pwysocki/docvault/internal/usecase"
)

// ActivityHandler exposes the audit log over HTTP.
type ActivityHandler struct {
	activity *usecase.ActivityService
}

// NewActivityHandler builds an activity handler.
func NewActivityHandler(activity *usecase.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// RegisterRoutes attaches activity endpoints to the group.
func (h *ActivityHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.Recent)
	r.GET("/mine", h.Mine)
}

var activityErrorCases = []ErrorCase{
	{Err: usecase.ErrUnauthorized, Status: http.StatusUnauthorized, Message: "authentication required"},
	{Err: usecase.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid request"},
}

func limitFromQuery(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Recent returns the newest audit records across the system. Superuser only.
func (h *ActivityHandler) Recent(c *gin.Context) {
	limit, ok := limitFromQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid limit"))
		return
	}

	actor := middleware.GetActor(c)
	entries, err := h.activity.Recent(c.Request.Context(), actor, limit)
	if err != nil {
		RespondWithMappedError(c, err, activityErrorCases, http.StatusInternalServerError, "failed to list activity")
		return
	}

	payloads := make([]ActivityPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, toActivityPayload(entry))
	}

	c.JSON(http.StatusOK, ActivityListResponse{Entries: payloads})
}

// Mine returns the caller's own audit trail.
func (h *ActivityHandler) Mine(c *gin.Context) {
	limit, ok := limitFromQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid limit"))
		return
	}

	actor := middleware.GetActor(c)
	entries, err := h.activity.Mine(c.Request.Context(), actor, limit)
	if err != nil {
		RespondWithMappedError(c, err, activityErrorCases, http.StatusInternalServerError, "failed to list activity")
		return
	}

	payloads := make([]ActivityPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, toActivityPayload(entry))
	}

	c.JSON(http.StatusOK, ActivityListResponse{Entries: payloads})
}
