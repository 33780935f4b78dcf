package handlers

import (
	"net/http"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/akrammlh02/elearning-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// pathOrderStep leaves room to insert lessons between existing entries
// without renumbering.
const pathOrderStep = 10

type PathInput struct {
	Slug          string `json:"slug" binding:"omitempty,max=100"`
	TitleEn       string `json:"titleEn" binding:"required,max=200"`
	TitleAr       string `json:"titleAr" binding:"max=200"`
	DescriptionEn string `json:"descriptionEn"`
	DescriptionAr string `json:"descriptionAr"`
	Icon          string `json:"icon"`
	RequiredTier  string `json:"requiredTier" binding:"required,oneof=free pro vip"`
	IsPublished   *bool  `json:"isPublished"`
}

func (in PathInput) apply(p *models.LearningPath) {
	p.TitleEn, p.TitleAr = in.TitleEn, in.TitleAr
	p.DescriptionEn, p.DescriptionAr = in.DescriptionEn, in.DescriptionAr
	p.Icon = in.Icon
	p.RequiredTier, _ = models.ParseTier(in.RequiredTier)
	if in.IsPublished != nil {
		p.IsPublished = *in.IsPublished
	}
	slug := utils.GenerateSlug(in.Slug)
	if slug == "" {
		slug = utils.GenerateSlug(in.TitleEn)
	}
	if slug != "" {
		p.Slug = slug
	}
}

func slugTaken(tx *gorm.DB, slug, exceptID string) bool {
	var n int64
	tx.Unscoped().Model(&models.LearningPath{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&n)
	return n > 0
}

func AdminListPaths(c *gin.Context) {
	var paths []models.LearningPath
	if err := database.DB.Order("created_at ASC").Find(&paths).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paths": paths})
}

func AdminGetPath(c *gin.Context) {
	var path models.LearningPath
	err := database.DB.
		Preload("Lessons", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_number ASC") }).
		Preload("Lessons.Lesson").
		First(&path, "id = ?", c.Param("id")).Error
	if err != nil {
		respondCatalogError(c, err, "Learning path not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

func AdminCreatePath(c *gin.Context) {
	var input PathInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := getAdminID(c)

	var path models.LearningPath
	input.apply(&path)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if path.Slug != "" && slugTaken(tx, path.Slug, "") {
			return apperrors.Conflict("Slug already in use")
		}
		// Arabic-only titles produce no slug; the id stands in
		if path.Slug == "" {
			path.ID = uuid.New().String()
			path.Slug = path.ID
		}
		if err := tx.Create(&path).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionCreatePath, path.ID, "path", path.TitleEn)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"path": path})
}

// AdminUpdatePath changes path metadata. Existing entries keep their own
// required tier; RequiredTier is the default for entries added later.
func AdminUpdatePath(c *gin.Context) {
	var input PathInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := getAdminID(c)

	var path models.LearningPath
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&path, "id = ?", c.Param("id")).Error; err != nil {
			return err
		}
		input.apply(&path)
		if slugTaken(tx, path.Slug, path.ID) {
			return apperrors.Conflict("Slug already in use")
		}
		if err := tx.Save(&path).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionUpdatePath, path.ID, "path", "")
	})
	if err != nil {
		respondCatalogError(c, err, "Learning path not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path})
}

func AdminDeletePath(c *gin.Context) {
	adminID := getAdminID(c)
	id := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.LearningPath{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return logAdminAction(tx, adminID, models.ActionDeletePath, id, "path", "")
	})
	if err != nil {
		respondCatalogError(c, err, "Learning path not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Learning path deleted"})
}

type PathLessonInput struct {
	LessonID     string  `json:"lessonId"`
	OrderNumber  *int    `json:"orderNumber" binding:"omitempty,min=1"`
	RequiredTier *string `json:"requiredTier" binding:"omitempty,oneof=free pro vip"`
}

func orderTaken(tx *gorm.DB, pathID string, order int, exceptID string) bool {
	var n int64
	tx.Model(&models.PathLesson{}).Where("path_id = ? AND order_number = ? AND id <> ?", pathID, order, exceptID).Count(&n)
	return n > 0
}

// AdminAddPathLesson places an existing lesson in the path. Without an
// explicit order it goes last; without a tier it inherits the path's.
func AdminAddPathLesson(c *gin.Context) {
	var input PathLessonInput
	if err := c.ShouldBindJSON(&input); err != nil || input.LessonID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lessonId is required"})
		return
	}
	adminID := getAdminID(c)
	pathID := c.Param("id")

	var entry models.PathLesson
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var path models.LearningPath
		if err := tx.First(&path, "id = ?", pathID).Error; err != nil {
			return apperrors.NotFound("Learning path not found")
		}
		if err := tx.Select("id").First(&models.Lesson{}, "id = ?", input.LessonID).Error; err != nil {
			return apperrors.NotFound("Lesson not found")
		}

		var dup int64
		tx.Model(&models.PathLesson{}).Where("path_id = ? AND lesson_id = ?", pathID, input.LessonID).Count(&dup)
		if dup > 0 {
			return apperrors.Conflict("Lesson is already in this path")
		}

		entry = models.PathLesson{PathID: pathID, LessonID: input.LessonID, RequiredTier: path.RequiredTier}
		if input.RequiredTier != nil {
			entry.RequiredTier, _ = models.ParseTier(*input.RequiredTier)
		}
		if input.OrderNumber != nil {
			if orderTaken(tx, pathID, *input.OrderNumber, "") {
				return apperrors.Conflict("Order number already used in this path")
			}
			entry.OrderNumber = *input.OrderNumber
		} else {
			var maxOrder int
			if err := tx.Model(&models.PathLesson{}).Where("path_id = ?", pathID).
				Select("COALESCE(MAX(order_number), 0)").Scan(&maxOrder).Error; err != nil {
				return err
			}
			entry.OrderNumber = maxOrder + pathOrderStep
		}

		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionAddPathLesson, entry.ID, "path_lesson", input.LessonID)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

func AdminUpdatePathLesson(c *gin.Context) {
	var input PathLessonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := getAdminID(c)

	var entry models.PathLesson
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, "id = ?", c.Param("entryId")).Error; err != nil {
			return apperrors.NotFound("Path entry not found")
		}
		updates := map[string]interface{}{}
		if input.OrderNumber != nil && *input.OrderNumber != entry.OrderNumber {
			if orderTaken(tx, entry.PathID, *input.OrderNumber, entry.ID) {
				return apperrors.Conflict("Order number already used in this path")
			}
			updates["order_number"] = *input.OrderNumber
		}
		if input.RequiredTier != nil {
			tier, _ := models.ParseTier(*input.RequiredTier)
			updates["required_tier"] = tier
		}
		if len(updates) == 0 {
			return apperrors.BadRequest("Nothing to update")
		}
		if err := tx.Model(&entry).Updates(updates).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionUpdatePathLesson, entry.ID, "path_lesson", "")
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

func AdminRemovePathLesson(c *gin.Context) {
	adminID := getAdminID(c)
	entryID := c.Param("entryId")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.PathLesson{}, "id = ?", entryID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("Path entry not found")
		}
		return logAdminAction(tx, adminID, models.ActionRemovePathLesson, entryID, "path_lesson", "")
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lesson removed from path"})
}
