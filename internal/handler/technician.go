package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suportia/helpdesk/internal/auth"
	"github.com/suportia/helpdesk/internal/errs"
	"github.com/suportia/helpdesk/internal/policy"
	"github.com/suportia/helpdesk/internal/service"
)

// TechnicianHandler manages agent accounts. Listing is open to any
// authenticated caller; create/delete are admin-only.
type TechnicianHandler struct {
	users      *service.UserService
	pol        *policy.Policy
	production bool
}

func NewTechnicianHandler(users *service.UserService, pol *policy.Policy, production bool) *TechnicianHandler {
	return &TechnicianHandler{users: users, pol: pol, production: production}
}

func (h *TechnicianHandler) requireAdmin(c *gin.Context) bool {
	profile, err := h.pol.Resolve(c.Request.Context(), auth.UserID(c))
	if err != nil {
		internalError(c, h.production, err)
		return false
	}
	if !policy.CanManageTechnicians(profile.Role) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden: Admin access required"})
		return false
	}
	return true
}

func (h *TechnicianHandler) List(c *gin.Context) {
	technicians, err := h.users.ListTechnicians(c.Request.Context())
	if err != nil {
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusOK, technicians)
}

type createTechnicianRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *TechnicianHandler) Create(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	var req createTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	technician, err := h.users.CreateTechnician(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, errs.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"message": "User with this email already exists"})
			return
		}
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusCreated, technician)
}

func (h *TechnicianHandler) Delete(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	if err := h.users.DeleteTechnician(c.Request.Context(), c.Param("id")); err != nil {
		internalError(c, h.production, err)
		return
	}
	c.Status(http.StatusNoContent)
}
