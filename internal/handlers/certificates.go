package handlers

import (
	"net/http"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/gin-gonic/gin"
)

func ListMyCertificates(c *gin.Context) {
	var certs []models.Certificate
	if err := database.DB.Preload("Course").
		Where("client_id = ?", c.GetString("userId")).
		Order("issued_at DESC").
		Find(&certs).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificates": certs})
}

// VerifyCertificate is public: anyone holding a certificate number can check
// who earned it and for which course.
func VerifyCertificate(c *gin.Context) {
	lang := requestLang(c)

	var cert models.Certificate
	if err := database.DB.Preload("Course").
		Where("certificate_number = ?", c.Param("number")).
		First(&cert).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"valid": false, "error": "Certificate not found"})
		return
	}

	var holder models.User
	database.DB.Select("id", "name").First(&holder, "id = ?", cert.ClientID)

	c.JSON(http.StatusOK, gin.H{
		"valid":             true,
		"certificateNumber": cert.CertificateNumber,
		"issuedAt":          cert.IssuedAt,
		"holder":            holder.Name,
		"course":            cert.Course.Title(lang),
		"url":               cert.URL,
	})
}
