package handlers

import (
	"net/http"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/internal/services"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/akrammlh02/elearning-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Helper: Log Admin Action
func logAdminAction(tx *gorm.DB, adminID string, action models.ActionType, targetID string, targetType string, reason string) error {
	audit := models.AdminAction{
		AdminID:    adminID,
		Action:     action,
		TargetID:   targetID,
		TargetType: targetType,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
	return tx.Create(&audit).Error
}

func getAdminID(c *gin.Context) string {
	return c.GetString("userId")
}

// --- Dashboard ---

func AdminGetDashboard(c *gin.Context) {
	var stats struct {
		TotalUsers        int64   `json:"totalUsers"`
		ActiveMembers     int64   `json:"activeMembers"`
		PublishedCourses  int64   `json:"publishedCourses"`
		PublishedPaths    int64   `json:"publishedPaths"`
		PendingPayments   int64   `json:"pendingPayments"`
		CertificatesTotal int64   `json:"certificatesTotal"`
		Revenue30d        float64 `json:"revenue30d"`
	}

	now := time.Now()
	database.DB.Model(&models.User{}).Count(&stats.TotalUsers)
	database.DB.Model(&models.User{}).
		Where("membership_status = ? AND membership_expires_at > ?", models.MembershipActive, now).
		Count(&stats.ActiveMembers)
	database.DB.Model(&models.Course{}).Where("is_published = ?", true).Count(&stats.PublishedCourses)
	database.DB.Model(&models.LearningPath{}).Where("is_published = ?", true).Count(&stats.PublishedPaths)
	database.DB.Model(&models.Payment{}).
		Where("status = ?", models.PaymentPending).
		Distinct("checkout_ref").
		Count(&stats.PendingPayments)
	database.DB.Model(&models.Certificate{}).Count(&stats.CertificatesTotal)
	database.DB.Model(&models.Payment{}).
		Where("status = ? AND paid_at >= ?", models.PaymentPaid, now.AddDate(0, 0, -30)).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.Revenue30d)

	c.JSON(http.StatusOK, stats)
}

// --- Users ---

func AdminListUsers(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Model(&models.User{})
	if search := utils.SanitizeSearchQuery(c.Query("search")); search != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\'", search, search)
	}
	if tier, ok := models.ParseTier(c.Query("tier")); ok {
		query = query.Where("membership_tier = ?", tier)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "total": total, "page": page, "limit": limit})
}

func setUserBlocked(c *gin.Context, blocked bool) {
	adminID := getAdminID(c)
	userID := c.Param("id")
	if userID == adminID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot block yourself"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	action := models.ActionBlockUser
	if !blocked {
		action = models.ActionUnblockUser
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("is_blocked", blocked)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return logAdminAction(tx, adminID, action, userID, "user", req.Reason)
	})
	if database.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated", "isBlocked": blocked})
}

func AdminBlockUser(c *gin.Context)   { setUserBlocked(c, true) }
func AdminUnblockUser(c *gin.Context) { setUserBlocked(c, false) }

type GrantMembershipInput struct {
	Tier   string `json:"tier" binding:"required,oneof=free pro vip"`
	Days   int    `json:"days" binding:"omitempty,min=1,max=3650"`
	Reason string `json:"reason"`
}

// AdminGrantMembership sets a tier by hand, e.g. for a payment settled
// outside the platform. Granting "free" ends the membership now.
func AdminGrantMembership(c *gin.Context) {
	var input GrantMembershipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tier, _ := models.ParseTier(input.Tier)
	adminID := getAdminID(c)
	userID := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if tier == models.TierFree {
			res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
				"membership_tier":       models.TierFree,
				"membership_status":     models.MembershipNone,
				"membership_expires_at": nil,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		} else {
			days := input.Days
			if days == 0 && services.DefaultPayments != nil {
				days = services.DefaultPayments.MembershipDays
			}
			if days <= 0 {
				days = 30
			}
			if err := services.GrantMembership(tx, userID, tier, days, time.Now()); err != nil {
				return err
			}
		}
		return logAdminAction(tx, adminID, models.ActionGrantMembership, userID, "user", input.Tier+": "+input.Reason)
	})
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondError(c, err)
		return
	}

	var user models.User
	database.DB.First(&user, "id = ?", userID)
	logger.Info().Str("admin_id", adminID).Str("user_id", userID).Str("tier", input.Tier).Msg("Membership granted manually")
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// --- Audit ---

func AdminGetAuditLogs(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Model(&models.AdminAction{})
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if target := c.Query("targetId"); target != "" {
		query = query.Where("target_id = ?", target)
	}

	var logs []models.AdminAction
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&logs).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "page": page, "limit": limit})
}

// --- System controls ---

var editableSettings = map[string]bool{
	models.SettingMaintenanceMode:    true,
	models.SettingMaintenanceETA:     true,
	models.SettingRegistrationOpen:   true,
	models.SettingInteractiveLessons: true,
	models.SettingManualPaymentsOpen: true,
}

func AdminGetSystemSettings(c *gin.Context) {
	var settings []models.SystemSettings
	database.DB.Find(&settings)

	settingsMap := make(map[string]string)
	for _, s := range settings {
		settingsMap[s.Key] = s.Value
	}

	c.JSON(http.StatusOK, gin.H{"settings": settingsMap})
}

func AdminUpdateSystemSettings(c *gin.Context) {
	adminID := getAdminID(c)

	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !editableSettings[req.Key] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid setting key"})
		return
	}

	setting := models.SystemSettings{
		Key:       req.Key,
		Value:     req.Value,
		UpdatedBy: adminID,
		UpdatedAt: time.Now(),
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&setting).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionUpdateSettings, req.Key, "system", "Changed to: "+req.Value)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Setting updated", "setting": setting})
}

// PublicGetSystemStatus returns the toggles the frontend needs before login.
func PublicGetSystemStatus(c *gin.Context) {
	var settings []models.SystemSettings
	database.DB.Where("key IN ?", []string{
		models.SettingMaintenanceMode,
		models.SettingMaintenanceETA,
		models.SettingRegistrationOpen,
		models.SettingInteractiveLessons,
		models.SettingManualPaymentsOpen,
	}).Find(&settings)

	settingsMap := make(map[string]string)
	for _, s := range settings {
		settingsMap[s.Key] = s.Value
	}

	c.JSON(http.StatusOK, gin.H{"settings": settingsMap})
}
