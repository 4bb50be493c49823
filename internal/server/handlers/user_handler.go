package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/server/middleware"
	"github.com/mamadbah2/flocktrack/internal/service/users"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	users  *users.Service
	logger *zap.Logger
}

// NewUserHandler constructs the profile handler.
func NewUserHandler(svc *users.Service, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{users: svc, logger: logger}
}

type defaultFlockRequest struct {
	FlockID string `json:"flockId" binding:"required"`
}

type linkIdentityRequest struct {
	ExternalID string `json:"externalId" binding:"required"`
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// SetDefaultFlock picks the flock the dashboard opens on.
func (h *UserHandler) SetDefaultFlock(c *gin.Context) {
	var req defaultFlockRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	user, err := h.users.SetDefaultFlock(c.Request.Context(), middleware.CurrentUser(c).ID, req.FlockID)
	if err != nil {
		respondError(c, h.logger, "failed to set default flock", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// LinkIdentity attaches a second provider account to the caller.
func (h *UserHandler) LinkIdentity(c *gin.Context) {
	var req linkIdentityRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	user, err := h.users.LinkSecondaryIdentity(c.Request.Context(), middleware.CurrentUser(c).ID, req.ExternalID)
	if err != nil {
		respondError(c, h.logger, "failed to link identity", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
