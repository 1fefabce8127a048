package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suportia/helpdesk/internal/auth"
	"github.com/suportia/helpdesk/internal/errs"
	"github.com/suportia/helpdesk/internal/service"
)

// AuthHandler implements the session collaborator's HTTP surface.
type AuthHandler struct {
	users      *service.UserService
	production bool
}

func NewAuthHandler(users *service.UserService, production bool) *AuthHandler {
	return &AuthHandler{users: users, production: production}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, errs.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"message": "User with this email already exists"})
			return
		}
		internalError(c, h.production, err)
		return
	}
	if err := auth.SignIn(c, user.ID); err != nil {
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		internalError(c, h.production, err)
		return
	}
	if err := auth.SignIn(c, user.ID); err != nil {
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := auth.SignOut(c); err != nil {
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// CurrentUser returns the authenticated identity, password excluded.
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
