package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"absensi/internal/geofence"
	"absensi/internal/user"
)

// ---------- Users ----------

// ListUsers returns all non-admin accounts.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	FullName string  `json:"full_name" binding:"required"`
	Email    *string `json:"email"`
	ClassID  *int64  `json:"class_id"`
	Role     string  `json:"role"`
}

// CreateUser creates an account with an explicit role.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}
	u, err := h.Users.Create(c.Request.Context(), req.Username, req.Password, req.FullName, req.Email, req.ClassID, req.Role)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// UserDetail returns one account with attendance stats.
func (h *Handler) UserDetail(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	detail, err := h.Users.Detail(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type updateUserRequest struct {
	FullName   *string `json:"full_name"`
	Email      *string `json:"email"`
	ClassID    *int64  `json:"class_id"`
	ClearClass bool    `json:"clear_class"`
	Password   *string `json:"password"`
	Role       *string `json:"role"`
}

// UpdateUser applies a partial edit. Absent fields stay untouched.
func (h *Handler) UpdateUser(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Users.Update(c.Request.Context(), actorID, id, user.UpdateRequest{
		FullName:   req.FullName,
		Email:      req.Email,
		ClassID:    req.ClassID,
		ClearClass: req.ClearClass,
		Password:   req.Password,
		Role:       req.Role,
	})
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// ToggleUser flips an account's active flag.
func (h *Handler) ToggleUser(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	active, err := h.Users.ToggleActive(c.Request.Context(), actorID, id)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "active": active})
}

// DeleteUser removes an account and its stored photos.
func (h *Handler) DeleteUser(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	paths, err := h.Users.Delete(c.Request.Context(), actorID, id)
	if err != nil {
		serviceError(c, err)
		return
	}
	for _, p := range paths {
		if err := h.Photos.Remove(p); err != nil {
			log.Printf("photo removal failed for %s: %v", p, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id, "photos_removed": len(paths)})
}

// ---------- Zones ----------

// ListZones returns every geofence zone.
func (h *Handler) ListZones(c *gin.Context) {
	zones, err := h.Zones.List(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	if zones == nil {
		zones = []geofence.Zone{}
	}
	c.JSON(http.StatusOK, gin.H{"zones": zones})
}

type zoneRequest struct {
	Name      string  `json:"name" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	RadiusM   int     `json:"radius_m" binding:"required"`
}

// CreateZone adds a geofence zone.
func (h *Handler) CreateZone(c *gin.Context) {
	var req zoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	z, err := h.Zones.Create(c.Request.Context(), geofence.Zone{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		RadiusM:   req.RadiusM,
	})
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, z)
}

// UpdateZone replaces a zone's name, center and radius.
func (h *Handler) UpdateZone(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req zoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.Zones.Update(c.Request.Context(), geofence.Zone{
		ID:        id,
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		RadiusM:   req.RadiusM,
	})
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": id})
}

// ToggleZone flips a zone's active flag.
func (h *Handler) ToggleZone(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	active, err := h.Zones.ToggleActive(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "active": active})
}

// DeleteZone removes a zone permanently.
func (h *Handler) DeleteZone(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Zones.Delete(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
