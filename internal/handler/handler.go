// Package handler exposes the HTTP API over gin.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"absensi/internal/attendance"
	"absensi/internal/auth"
	"absensi/internal/config"
	"absensi/internal/face"
	"absensi/internal/geofence"
	"absensi/internal/photo"
	"absensi/internal/store"
	"absensi/internal/user"
)

// Deps bundles everything the handlers call into.
type Deps struct {
	Cfg        config.App
	Attendance *attendance.Service
	Ledger     *attendance.Repository
	Reports    *attendance.Reporter
	Users      *user.Service
	Faces      *face.Repository
	Extractor  *face.Client
	Photos     *photo.Store
	FacePhotos *photo.Store
	Zones      *geofence.Repository
	DB         *store.DB
	Redis      *store.Redis
}

// Handler holds the wired dependencies.
type Handler struct {
	Deps
}

// New creates the handler set.
func New(d Deps) *Handler {
	return &Handler{Deps: d}
}

// Routes registers all endpoints on the engine.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")
	v1.POST("/auth/register", h.Register)
	v1.POST("/auth/login", h.Login)
	v1.GET("/auth/username-available", h.UsernameAvailable)

	authed := v1.Group("", auth.UserAuth(h.Cfg.JWTSigningKey, h.Cfg.JWTIssuer))
	authed.POST("/attendance/checkin", h.CheckIn)
	authed.POST("/attendance/checkout", h.CheckOut)
	authed.GET("/attendance/today", h.Today)
	authed.GET("/me/monthly", h.MyMonthly)
	authed.GET("/face", h.FaceStatus)
	authed.POST("/face", h.EnrollFace)
	authed.DELETE("/face", h.RemoveFace)
	authed.GET("/classes", h.Classes)

	admin := authed.Group("", auth.RequireRole("admin"))
	admin.GET("/reports/daily", h.DailyReport)
	admin.GET("/reports/weekly", h.WeeklyReport)
	admin.GET("/reports/monthly", h.MonthlyReport)

	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.CreateUser)
	admin.GET("/users/:id", h.UserDetail)
	admin.PATCH("/users/:id", h.UpdateUser)
	admin.POST("/users/:id/toggle", h.ToggleUser)
	admin.DELETE("/users/:id", h.DeleteUser)

	admin.GET("/zones", h.ListZones)
	admin.POST("/zones", h.CreateZone)
	admin.PUT("/zones/:id", h.UpdateZone)
	admin.POST("/zones/:id/toggle", h.ToggleZone)
	admin.DELETE("/zones/:id", h.DeleteZone)

	admin.GET("/photos/stats", h.PhotoStats)
}

// Healthz reports dependency health.
func (h *Handler) Healthz(c *gin.Context) {
	ctx := c.Request.Context()
	dbHealthy := h.DB.Healthy(ctx)
	redisHealthy := h.Redis.Healthy(ctx)
	faceHealthy := h.Extractor.Health(ctx) == nil

	status := http.StatusOK
	if !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status": "ok",
		"db":     dbHealthy,
		"redis":  redisHealthy,
		"face":   faceHealthy,
	})
}

// currentUserID returns the authenticated user's id.
func currentUserID(c *gin.Context) (int64, bool) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid subject"})
		return 0, false
	}
	return id, true
}

// idParam parses the :id path segment.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// serviceError maps domain errors to HTTP answers.
func serviceError(c *gin.Context, err error) {
	var vErr *user.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, geofence.ErrInvalidZone):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrNotFound), errors.Is(err, geofence.ErrZoneNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrDuplicateUsername), errors.Is(err, geofence.ErrDuplicateName):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrSelfTarget):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrBadCredentials), errors.Is(err, user.ErrInactiveAccount):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
