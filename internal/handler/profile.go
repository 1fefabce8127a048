package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suportia/helpdesk/internal/auth"
	"github.com/suportia/helpdesk/internal/model"
	"github.com/suportia/helpdesk/internal/policy"
	"github.com/suportia/helpdesk/internal/service"
)

type ProfileHandler struct {
	users      *service.UserService
	pol        *policy.Policy
	production bool
}

func NewProfileHandler(users *service.UserService, pol *policy.Policy, production bool) *ProfileHandler {
	return &ProfileHandler{users: users, pol: pol, production: production}
}

// Get returns the caller's profile, creating a customer profile on first
// access.
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.pol.Resolve(c.Request.Context(), auth.UserID(c))
	if err != nil {
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateProfileRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !model.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid role. Must be 'customer', 'agent', or 'admin'",
			"field":   "role",
		})
		return
	}
	profile, err := h.users.UpdateProfile(c.Request.Context(), auth.UserID(c), model.Role(req.Role))
	if err != nil {
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
