package handlers

import (
	"net/http"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/internal/services"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- Payments ---

func AdminListPayments(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Model(&models.Payment{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if method := c.Query("method"); method != "" {
		query = query.Where("method = ?", method)
	}

	var total int64
	query.Count(&total)

	var payments []models.Payment
	err := query.Preload("Client", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "email")
	}).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// AdminApprovePayment confirms a manual checkout and applies it exactly as a
// gateway capture would.
func AdminApprovePayment(c *gin.Context) {
	adminID := getAdminID(c)
	ref := c.Param("ref")

	changed, err := services.ReconcileCheckout(c.Request.Context(), database.DB, ref, services.ReconcileInput{ReviewedBy: &adminID})
	if err != nil {
		respondError(c, err)
		return
	}
	if changed {
		if err := logAdminAction(database.DB, adminID, models.ActionApprovePayment, ref, "checkout", ""); err != nil {
			logger.Warn().Err(err).Str("checkout_ref", ref).Msg("Failed to record payment approval")
		}
	}

	c.JSON(http.StatusOK, gin.H{"approved": true, "alreadyProcessed": !changed})
}

type RejectPaymentInput struct {
	Note string `json:"note" binding:"max=500"`
}

func AdminRejectPayment(c *gin.Context) {
	var input RejectPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := getAdminID(c)
	ref := c.Param("ref")

	if err := services.RejectCheckout(c.Request.Context(), database.DB, ref, adminID, input.Note); err != nil {
		respondError(c, err)
		return
	}
	if err := logAdminAction(database.DB, adminID, models.ActionRejectPayment, ref, "checkout", input.Note); err != nil {
		logger.Warn().Err(err).Str("checkout_ref", ref).Msg("Failed to record payment rejection")
	}

	c.JSON(http.StatusOK, gin.H{"rejected": true})
}

// --- Certificates ---

func AdminListCertificates(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Model(&models.Certificate{})
	if courseID := c.Query("courseId"); courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	if clientID := c.Query("clientId"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	var total int64
	query.Count(&total)

	var certs []models.Certificate
	if err := query.Preload("Course").Order("issued_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&certs).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"certificates": certs,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// AdminDeleteCertificate revokes a certificate. Completing another lesson of
// the course issues a fresh one with a new number.
func AdminDeleteCertificate(c *gin.Context) {
	adminID := getAdminID(c)
	id := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Certificate{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return logAdminAction(tx, adminID, models.ActionDeleteCert, id, "certificate", "")
	})
	if err != nil {
		respondCatalogError(c, err, "Certificate not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Certificate deleted"})
}
