package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pwysocki/docvault/internal/infra/security"
	"github.com/pwysocki/docvault/internal/usecase"
)

// TokenHandler exchanges a username for an access token. Authentication of
// the caller happens upstream; this endpoint only mints service tokens for
// already-verified identities.
type TokenHandler struct {
	users  *usecase.UserService
	tokens *security.JWTManager
}

// NewTokenHandler builds a token handler.
func NewTokenHandler(users *usecase.UserService, tokens *security.JWTManager) *TokenHandler {
	return &TokenHandler{users: users, tokens: tokens}
}

// RegisterRoutes attaches the token endpoint to the group.
func (h *TokenHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/token", h.Issue)
}

// Issue mints an access token for the supplied username.
func (h *TokenHandler) Issue(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid token payload"))
		return
	}

	user, err := h.users.Lookup(c.Request.Context(), req.Username)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrNotFound, Status: http.StatusNotFound, Message: "user not found"},
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid request"},
		}, http.StatusInternalServerError, "failed to issue token")
		return
	}

	token, err := h.tokens.IssueAccessToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokens.AccessTokenTTL().Seconds()),
	})
}
