package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/transport/http/middleware"
	"github.com/pwysocki/docvault/internal/usecase"
)

// UserHandler exposes account administration over HTTP. All endpoints are
// superuser-gated by the router.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler builds a user handler.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterRoutes attaches user administration endpoints to the group.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Provision)
	r.PUT("/:id/role", h.ChangeRole)
	r.PUT("/:id/active", h.SetActive)
}

var userErrorCases = []ErrorCase{
	{Err: usecase.ErrUnauthorized, Status: http.StatusUnauthorized, Message: "authentication required"},
	{Err: usecase.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
	{Err: usecase.ErrNotFound, Status: http.StatusNotFound, Message: "user not found"},
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid request"},
}

// Provision registers a new account with an active profile.
func (h *UserHandler) Provision(c *gin.Context) {
	var req UserProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid user payload"))
		return
	}

	user, err := h.users.Provision(c.Request.Context(), usecase.ProvisionUserInput{
		Username:    req.Username,
		Email:       req.Email,
		IsSuperuser: req.IsSuperuser,
		Role:        domain.Role(req.Role),
		OriginIP:    c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "failed to provision user")
		return
	}

	c.JSON(http.StatusCreated, toUserPayload(user))
}

// ChangeRole replaces the user's role.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req RoleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role payload"))
		return
	}

	actor := middleware.GetActor(c)
	if err := h.users.ChangeRole(c.Request.Context(), actor, c.Param("id"), domain.Role(req.Role), c.ClientIP()); err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "failed to change role")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "role updated"})
}

// SetActive toggles the user's active flag.
func (h *UserHandler) SetActive(c *gin.Context) {
	var req ActiveChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid active payload"))
		return
	}

	actor := middleware.GetActor(c)
	if err := h.users.SetActive(c.Request.Context(), actor, c.Param("id"), *req.Active, c.ClientIP()); err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "failed to update user")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user updated"})
}
