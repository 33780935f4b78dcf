package handlers

import (
	"net/http"

	"github.com/akrammlh02/elearning-backend/internal/services"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

var uploadFolders = map[string]bool{
	"thumbnails": true,
	"lessons":    true,
	"paths":      true,
	"uploads":    true,
}

// UploadFile stores admin media (thumbnails, lesson attachments) in R2.
func UploadFile(c *gin.Context) {
	if services.DefaultStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File storage not configured"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		file, header, err = c.Request.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No valid file field found"})
			return
		}
	}
	defer file.Close()

	folder := c.DefaultQuery("folder", "uploads")
	if !uploadFolders[folder] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folder"})
		return
	}

	key := services.ObjectKey(folder, header.Filename)
	url, err := services.DefaultStore.Put(c.Request.Context(), key, file, header.Header.Get("Content-Type"))
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Upload failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      url,
		"key":      key,
		"mimetype": header.Header.Get("Content-Type"),
		"size":     header.Size,
	})
}
