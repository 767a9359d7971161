package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"absensi/internal/photo"
)

// FaceStatus reports whether the caller has an active face profile.
func (h *Handler) FaceStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	enrolled, err := h.Faces.HasActive(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrolled": enrolled})
}

// EnrollFace registers a new face profile from an uploaded photo. The photo
// must show exactly one face. Prior profiles are deactivated, not erased.
func (h *Handler) EnrollFace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Foto wajib diperlukan!"})
		return
	}
	defer file.Close()

	if !photo.AllowedFile(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File foto tidak valid!"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read photo"})
		return
	}

	encodings, err := h.Extractor.Extract(c.Request.Context(), data)
	if err != nil {
		log.Printf("face extraction failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "face service unavailable"})
		return
	}
	switch {
	case len(encodings) == 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wajah tidak terdeteksi."})
		return
	case len(encodings) > 1:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Terdeteksi lebih dari satu wajah!"})
		return
	}

	photoPath, err := h.FacePhotos.Save(userID, "wajah", data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store photo"})
		return
	}

	if _, err := h.Faces.Enroll(c.Request.Context(), userID, encodings[0], photoPath); err != nil {
		if rmErr := h.FacePhotos.Remove(photoPath); rmErr != nil {
			log.Printf("orphan face photo cleanup failed: %v", rmErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Wajah berhasil didaftarkan!",
	})
}

// RemoveFace deactivates the caller's face profiles and removes the stored
// enrollment photos.
func (h *Handler) RemoveFace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	paths, err := h.Faces.Deactivate(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	for _, p := range paths {
		if err := h.FacePhotos.Remove(p); err != nil {
			log.Printf("face photo removal failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "removed": len(paths)})
}
