package handlers

import (
	"errors"
	"net/http"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- Courses ---

type CourseInput struct {
	TitleEn       string   `json:"titleEn" binding:"required,max=200"`
	TitleAr       string   `json:"titleAr" binding:"max=200"`
	DescriptionEn string   `json:"descriptionEn"`
	DescriptionAr string   `json:"descriptionAr"`
	Thumbnail     string   `json:"thumbnail" binding:"omitempty,url"`
	Price         *float64 `json:"price" binding:"omitempty,min=0"`
	IsPublished   *bool    `json:"isPublished"`
}

func (in CourseInput) apply(course *models.Course) {
	course.TitleEn = in.TitleEn
	course.TitleAr = in.TitleAr
	course.DescriptionEn = in.DescriptionEn
	course.DescriptionAr = in.DescriptionAr
	course.Thumbnail = in.Thumbnail
	if in.Price != nil {
		course.Price = *in.Price
	}
	if in.IsPublished != nil {
		course.IsPublished = *in.IsPublished
	}
}

// AdminListCourses includes drafts.
func AdminListCourses(c *gin.Context) {
	var courses []models.Course
	if err := database.DB.Order("created_at DESC").Find(&courses).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func AdminGetCourse(c *gin.Context) {
	course, err := loadCourseTree(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}

func AdminCreateCourse(c *gin.Context) {
	var input CourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := getAdminID(c)

	var course models.Course
	input.apply(&course)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&course).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionCreateCourse, course.ID, "course", course.TitleEn)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

func AdminUpdateCourse(c *gin.Context) {
	var input CourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := getAdminID(c)

	var course models.Course
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&course, "id = ?", c.Param("id")).Error; err != nil {
			return err
		}
		input.apply(&course)
		if err := tx.Save(&course).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionUpdateCourse, course.ID, "course", "")
	})
	if err != nil {
		respondCatalogError(c, err, "Course not found")
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusOK, gin.H{"course": course})
}

func AdminDeleteCourse(c *gin.Context) {
	adminID := getAdminID(c)
	id := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Course{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return logAdminAction(tx, adminID, models.ActionDeleteCourse, id, "course", "")
	})
	if err != nil {
		respondCatalogError(c, err, "Course not found")
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

func respondCatalogError(c *gin.Context, err error, notFound string) {
	if database.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	respondError(c, err)
}

// --- Chapters ---

type ChapterInput struct {
	TitleEn string `json:"titleEn" binding:"required,max=200"`
	TitleAr string `json:"titleAr" binding:"max=200"`
	IsFree  *bool  `json:"isFree"`
}

// AdminCreateChapter appends a chapter at the end of the course.
func AdminCreateChapter(c *gin.Context) {
	var input ChapterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := getAdminID(c)
	courseID := c.Param("id")

	chapter := models.Chapter{CourseID: courseID, TitleEn: input.TitleEn, TitleAr: input.TitleAr}
	if input.IsFree != nil {
		chapter.IsFree = *input.IsFree
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Course{}, "id = ?", courseID).Error; err != nil {
			return err
		}
		var maxOrder int
		if err := tx.Model(&models.Chapter{}).Where("course_id = ?", courseID).
			Select("COALESCE(MAX(chapter_order), 0)").Scan(&maxOrder).Error; err != nil {
			return err
		}
		chapter.ChapterOrder = maxOrder + 1
		if err := tx.Create(&chapter).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionCreateChapter, chapter.ID, "chapter", chapter.TitleEn)
	})
	if err != nil {
		respondCatalogError(c, err, "Course not found")
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusCreated, gin.H{"chapter": chapter})
}

func AdminUpdateChapter(c *gin.Context) {
	var input ChapterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := getAdminID(c)

	var chapter models.Chapter
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&chapter, "id = ?", c.Param("id")).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"title_en": input.TitleEn, "title_ar": input.TitleAr}
		if input.IsFree != nil {
			updates["is_free"] = *input.IsFree
		}
		if err := tx.Model(&chapter).Updates(updates).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionUpdateChapter, chapter.ID, "chapter", "")
	})
	if err != nil {
		respondCatalogError(c, err, "Chapter not found")
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusOK, gin.H{"chapter": chapter})
}

// AdminDeleteChapter removes the chapter and soft-deletes its lessons.
func AdminDeleteChapter(c *gin.Context) {
	adminID := getAdminID(c)
	id := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chapter_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Chapter{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return logAdminAction(tx, adminID, models.ActionDeleteChapter, id, "chapter", "")
	})
	if err != nil {
		respondCatalogError(c, err, "Chapter not found")
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusOK, gin.H{"message": "Chapter deleted"})
}

type MoveInput struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

var errAtBoundary = apperrors.BadRequest("Already at the edge, nothing to swap with")

// swapOrder exchanges the ordering keys of two rows through a temporary key
// so the (parent, order) unique index never sees a duplicate.
func swapOrder(tx *gorm.DB, model interface{}, column, aID string, aOrder int, bID string, bOrder int) error {
	const parked = -1
	steps := []struct {
		id    string
		order int
	}{{aID, parked}, {bID, aOrder}, {aID, bOrder}}
	for _, s := range steps {
		if err := tx.Model(model).Where("id = ?", s.id).Update(column, s.order).Error; err != nil {
			return err
		}
	}
	return nil
}

func neighbourQuery(tx *gorm.DB, column string, current int, direction string) *gorm.DB {
	if direction == "up" {
		return tx.Where(column+" < ?", current).Order(column + " DESC")
	}
	return tx.Where(column+" > ?", current).Order(column + " ASC")
}

// AdminMoveChapter swaps the chapter with its neighbour in the given
// direction. Keys are never renumbered.
func AdminMoveChapter(c *gin.Context) {
	var input MoveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := getAdminID(c)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var chapter models.Chapter
		if err := tx.First(&chapter, "id = ?", c.Param("id")).Error; err != nil {
			return err
		}
		var other models.Chapter
		err := neighbourQuery(tx.Where("course_id = ?", chapter.CourseID), "chapter_order", chapter.ChapterOrder, input.Direction).
			First(&other).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errAtBoundary
		}
		if err != nil {
			return err
		}
		if err := swapOrder(tx, &models.Chapter{}, "chapter_order", chapter.ID, chapter.ChapterOrder, other.ID, other.ChapterOrder); err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionMoveChapter, chapter.ID, "chapter", input.Direction)
	})
	if err != nil {
		respondCatalogError(c, err, "Chapter not found")
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusOK, gin.H{"message": "Chapter moved"})
}

// --- Lessons ---

type LessonInput struct {
	ChapterID           *string               `json:"chapterId"`
	Type                models.LessonType     `json:"type" binding:"required,oneof=video article interactive"`
	IsFree              *bool                 `json:"isFree"`
	TitleEn             string                `json:"titleEn" binding:"required,max=200"`
	TitleAr             string                `json:"titleAr" binding:"max=200"`
	ContentEn           string                `json:"contentEn"`
	ContentAr           string                `json:"contentAr"`
	VideoURL            string                `json:"videoUrl" binding:"omitempty,url"`
	Duration            int                   `json:"duration" binding:"min=0"`
	ProgrammingLanguage string                `json:"programmingLanguage"`
	ChallengeEn         string                `json:"challengeEn"`
	ChallengeAr         string                `json:"challengeAr"`
	StarterCode         string                `json:"starterCode"`
	ReferenceSolution   string                `json:"referenceSolution"`
	ExpectedOutput      string                `json:"expectedOutput"`
	TestCases           datatypes.JSON        `json:"testCases"`
	ValidationType      models.ValidationType `json:"validationType" binding:"omitempty,oneof=exact_match output_match regex_match contains"`
}

func (in LessonInput) apply(l *models.Lesson) {
	l.Type = in.Type
	if in.IsFree != nil {
		l.IsFree = *in.IsFree
	}
	l.TitleEn, l.TitleAr = in.TitleEn, in.TitleAr
	l.ContentEn, l.ContentAr = in.ContentEn, in.ContentAr
	l.VideoURL = in.VideoURL
	l.Duration = in.Duration
	l.ProgrammingLanguage = in.ProgrammingLanguage
	l.ChallengeEn, l.ChallengeAr = in.ChallengeEn, in.ChallengeAr
	l.StarterCode = in.StarterCode
	l.ReferenceSolution = in.ReferenceSolution
	l.ExpectedOutput = in.ExpectedOutput
	l.TestCases = in.TestCases
	l.ValidationType = in.ValidationType
	if l.ValidationType == "" {
		l.ValidationType = models.ValidationContains
	}
}

func (in LessonInput) validate() error {
	if in.Type == models.LessonInteractive && in.ProgrammingLanguage == "" {
		return apperrors.BadRequest("Interactive lessons need a programming language")
	}
	return nil
}

// AdminGetLesson returns the full lesson including grading keys.
func AdminGetLesson(c *gin.Context) {
	var lesson models.Lesson
	if err := database.DB.First(&lesson, "id = ?", c.Param("id")).Error; err != nil {
		respondCatalogError(c, err, "Lesson not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lesson":            lesson,
		"referenceSolution": lesson.ReferenceSolution,
		"expectedOutput":    lesson.ExpectedOutput,
		"testCases":         lesson.TestCases,
	})
}

// AdminCreateLesson appends to the chapter when chapterId is given. Lessons
// without a chapter exist only to be placed in learning paths.
func AdminCreateLesson(c *gin.Context) {
	var input LessonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := input.validate(); err != nil {
		respondError(c, err)
		return
	}
	adminID := getAdminID(c)

	lesson := models.Lesson{ChapterID: input.ChapterID}
	input.apply(&lesson)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if lesson.ChapterID != nil {
			if err := tx.Select("id").First(&models.Chapter{}, "id = ?", *lesson.ChapterID).Error; err != nil {
				return err
			}
			// soft-deleted lessons still hold their key in the unique index
			var maxOrder int
			if err := tx.Unscoped().Model(&models.Lesson{}).Where("chapter_id = ?", *lesson.ChapterID).
				Select("COALESCE(MAX(lesson_order), 0)").Scan(&maxOrder).Error; err != nil {
				return err
			}
			lesson.LessonOrder = maxOrder + 1
		}
		if err := tx.Create(&lesson).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionCreateLesson, lesson.ID, "lesson", lesson.TitleEn)
	})
	if err != nil {
		respondCatalogError(c, err, "Chapter not found")
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusCreated, gin.H{"lesson": lesson})
}

// AdminUpdateLesson edits content. Moving a lesson between chapters is not
// supported; chapterId in the body is ignored.
func AdminUpdateLesson(c *gin.Context) {
	var input LessonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := input.validate(); err != nil {
		respondError(c, err)
		return
	}
	adminID := getAdminID(c)

	var lesson models.Lesson
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&lesson, "id = ?", c.Param("id")).Error; err != nil {
			return err
		}
		input.apply(&lesson)
		if err := tx.Save(&lesson).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionUpdateLesson, lesson.ID, "lesson", "")
	})
	if err != nil {
		respondCatalogError(c, err, "Lesson not found")
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusOK, gin.H{"lesson": lesson})
}

func AdminDeleteLesson(c *gin.Context) {
	adminID := getAdminID(c)
	id := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Lesson{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// a deleted lesson can no longer gate progression inside a path
		if err := tx.Where("lesson_id = ?", id).Delete(&models.PathLesson{}).Error; err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionDeleteLesson, id, "lesson", "")
	})
	if err != nil {
		respondCatalogError(c, err, "Lesson not found")
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusOK, gin.H{"message": "Lesson deleted"})
}

func AdminMoveLesson(c *gin.Context) {
	var input MoveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := getAdminID(c)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.First(&lesson, "id = ?", c.Param("id")).Error; err != nil {
			return err
		}
		if lesson.ChapterID == nil {
			return apperrors.BadRequest("Lesson is not part of a chapter")
		}
		var other models.Lesson
		err := neighbourQuery(tx.Where("chapter_id = ?", *lesson.ChapterID), "lesson_order", lesson.LessonOrder, input.Direction).
			First(&other).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errAtBoundary
		}
		if err != nil {
			return err
		}
		if err := swapOrder(tx, &models.Lesson{}, "lesson_order", lesson.ID, lesson.LessonOrder, other.ID, other.LessonOrder); err != nil {
			return err
		}
		return logAdminAction(tx, adminID, models.ActionMoveLesson, lesson.ID, "lesson", input.Direction)
	})
	if err != nil {
		respondCatalogError(c, err, "Lesson not found")
		return
	}

	invalidateCatalogCache()
	c.JSON(http.StatusOK, gin.H{"message": "Lesson moved"})
}
