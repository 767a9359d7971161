package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"absensi/internal/auth"
)

type registerRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	FullName string  `json:"full_name" binding:"required"`
	Email    *string `json:"email"`
	ClassID  *int64  `json:"class_id"`
}

// Register creates a regular user account.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.Users.Register(c.Request.Context(), req.Username, req.Password, req.FullName, req.Email, req.ClassID)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and issues an access token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.Users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		serviceError(c, err)
		return
	}

	token, exp, err := auth.Issue(u.ID, u.Role, h.Cfg.JWTIssuer, h.Cfg.JWTSigningKey, h.Cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_at":   exp.Unix(),
		"user":         u,
	})
}

// UsernameAvailable answers the registration form's live check.
func (h *Handler) UsernameAvailable(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username query required"})
		return
	}
	available, err := h.Users.UsernameAvailable(c.Request.Context(), username)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username, "available": available})
}

// Classes lists the active classes for the registration and edit forms.
func (h *Handler) Classes(c *gin.Context) {
	classes, err := h.Users.Classes(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}
