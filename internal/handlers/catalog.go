package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/internal/services"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/akrammlh02/elearning-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const catalogCacheTTL = 5 * time.Minute

type CourseSummary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
	Price       float64 `json:"price"`
	LessonCount int64   `json:"lessonCount"`
}

type LessonOutline struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Type        models.LessonType       `json:"type"`
	IsFree      bool                    `json:"isFree"`
	Duration    int                     `json:"duration"`
	Order       int                     `json:"order"`
	Completed   bool                    `json:"completed"`
	Access      services.AccessDecision `json:"access"`
	MinimumTier string                  `json:"requiredTier,omitempty"`
}

type ChapterOutline struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Order   int             `json:"order"`
	IsFree  bool            `json:"isFree"`
	Lessons []LessonOutline `json:"lessons"`
}

// LessonDetail is only ever built for unlocked lessons. Reference solutions
// and expected outputs never leave the server.
type LessonDetail struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	Type                models.LessonType `json:"type"`
	Content             string            `json:"content"`
	VideoURL            string            `json:"videoUrl,omitempty"`
	Duration            int               `json:"duration"`
	ProgrammingLanguage string            `json:"programmingLanguage,omitempty"`
	Challenge           string            `json:"challenge,omitempty"`
	StarterCode         string            `json:"starterCode,omitempty"`
	Completed           bool              `json:"completed"`
	AttemptsCount       int               `json:"attemptsCount,omitempty"`
}

func lessonDetail(l models.Lesson, lang string) LessonDetail {
	d := LessonDetail{
		ID:       l.ID,
		Title:    l.Title(lang),
		Type:     l.Type,
		Content:  l.Content(lang),
		VideoURL: l.VideoURL,
		Duration: l.Duration,
	}
	if l.IsInteractive() {
		d.ProgrammingLanguage = l.ProgrammingLanguage
		d.Challenge = l.Challenge(lang)
		d.StarterCode = l.StarterCode
	}
	return d
}

// respondLocked never includes lesson content.
func respondLocked(c *gin.Context, d services.AccessDecision) {
	err := d.Err()
	c.JSON(apperrors.StatusCode(err), gin.H{"error": err.Error(), "reason": d.Reason})
}

func courseLessonCounts(courseIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	if len(courseIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		CourseID string
		Total    int64
	}
	err := database.DB.Table("lessons").
		Select("chapters.course_id AS course_id, COUNT(*) AS total").
		Joins("JOIN chapters ON chapters.id = lessons.chapter_id").
		Where("lessons.deleted_at IS NULL AND chapters.course_id IN ?", courseIDs).
		Group("chapters.course_id").
		Scan(&rows).Error
	for _, r := range rows {
		counts[r.CourseID] = r.Total
	}
	return counts, err
}

// ListCourses returns published courses. Unfiltered listings are cached per
// language.
func ListCourses(c *gin.Context) {
	lang := requestLang(c)
	search := utils.SanitizeSearchQuery(c.Query("search"))
	cacheKey := "courses:list:" + lang

	if search == "" {
		var cached []CourseSummary
		if err := database.CacheGet(cacheKey, &cached); err == nil {
			c.JSON(http.StatusOK, gin.H{"courses": cached})
			return
		}
	}

	query := database.DB.Where("is_published = ?", true)
	if search != "" {
		query = query.Where("LOWER(title_en) LIKE ? ESCAPE '\\' OR LOWER(title_ar) LIKE ? ESCAPE '\\'", search, search)
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").Find(&courses).Error; err != nil {
		respondError(c, fmt.Errorf("list courses: %w", err))
		return
	}

	ids := make([]string, len(courses))
	for i, course := range courses {
		ids[i] = course.ID
	}
	counts, err := courseLessonCounts(ids)
	if err != nil {
		respondError(c, fmt.Errorf("count lessons: %w", err))
		return
	}

	out := make([]CourseSummary, len(courses))
	for i, course := range courses {
		out[i] = CourseSummary{
			ID:          course.ID,
			Title:       course.Title(lang),
			Description: course.Description(lang),
			Thumbnail:   course.Thumbnail,
			Price:       course.Price,
			LessonCount: counts[course.ID],
		}
	}

	if search == "" {
		if err := database.CacheSet(cacheKey, out, catalogCacheTTL); err != nil && !errors.Is(err, database.ErrCacheDisabled) {
			logger.Warn().Err(err).Msg("Failed to cache course list")
		}
	}

	c.JSON(http.StatusOK, gin.H{"courses": out})
}

func invalidateCatalogCache() {
	if err := database.CacheInvalidate("courses:*"); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate course cache")
	}
}

func loadCourseTree(id string) (*models.Course, error) {
	var course models.Course
	err := database.DB.
		Preload("Chapters", func(tx *gorm.DB) *gorm.DB { return tx.Order("chapter_order ASC") }).
		Preload("Chapters.Lessons", func(tx *gorm.DB) *gorm.DB { return tx.Order("lesson_order ASC") }).
		First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	return &course, nil
}

// GetCourse returns the course outline with the caller's access decision on
// every lesson.
func GetCourse(c *gin.Context) {
	learner, ok := currentLearner(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	lang := requestLang(c)

	course, err := loadCourseTree(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !course.IsPublished && (learner == nil || !learner.IsAdmin) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	purchased, err := services.HasPaidPurchase(ctx, database.DB, learner, course.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	decisions := services.CourseDecisions(learner, *course, purchased)

	var lessonIDs []string
	for _, ch := range course.Chapters {
		for _, l := range ch.Lessons {
			lessonIDs = append(lessonIDs, l.ID)
		}
	}
	completed, err := services.CompletedLessonIDs(ctx, database.DB, learner, lessonIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	chapters := make([]ChapterOutline, len(course.Chapters))
	for i, ch := range course.Chapters {
		lessons := make([]LessonOutline, len(ch.Lessons))
		for j, l := range ch.Lessons {
			lessons[j] = LessonOutline{
				ID:        l.ID,
				Title:     l.Title(lang),
				Type:      l.Type,
				IsFree:    l.IsFree,
				Duration:  l.Duration,
				Order:     l.LessonOrder,
				Completed: completed[l.ID],
				Access:    decisions[l.ID],
			}
		}
		chapters[i] = ChapterOutline{ID: ch.ID, Title: ch.Title(lang), Order: ch.ChapterOrder, IsFree: ch.IsFree, Lessons: lessons}
	}

	c.JSON(http.StatusOK, gin.H{
		"course": CourseSummary{
			ID:          course.ID,
			Title:       course.Title(lang),
			Description: course.Description(lang),
			Thumbnail:   course.Thumbnail,
			Price:       course.Price,
			LessonCount: int64(len(lessonIDs)),
		},
		"purchased": purchased,
		"chapters":  chapters,
	})
}

// courseLessonState checks that the lesson belongs to the course in the URL.
func courseLessonState(c *gin.Context, learner *services.Learner) (*services.CourseLessonState, bool) {
	state, err := services.CourseLessonAccess(c.Request.Context(), database.DB, learner, c.Param("lessonId"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	// lessons outside any chapter are still evaluated (fail-closed) but
	// never addressable through a different course
	if state.CourseID != "" && state.CourseID != c.Param("id") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found in this course"})
		return nil, false
	}
	return state, true
}

func GetCourseLesson(c *gin.Context) {
	learner, ok := currentLearner(c)
	if !ok {
		return
	}
	state, ok := courseLessonState(c, learner)
	if !ok {
		return
	}
	if !state.Decision.Unlocked {
		respondLocked(c, state.Decision)
		return
	}

	detail := lessonDetail(state.Lesson, requestLang(c))
	done, err := services.CompletedLessonIDs(c.Request.Context(), database.DB, learner, []string{state.Lesson.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	detail.Completed = done[state.Lesson.ID]

	c.JSON(http.StatusOK, gin.H{"lesson": detail, "access": state.Decision})
}

type PathSummary struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	RequiredTier string `json:"requiredTier"`
	LessonCount  int64  `json:"lessonCount"`
}

func pathSummary(p models.LearningPath, lang string, count int64) PathSummary {
	return PathSummary{
		ID:           p.ID,
		Slug:         p.Slug,
		Title:        p.Title(lang),
		Description:  p.Description(lang),
		Icon:         p.Icon,
		RequiredTier: p.RequiredTier.String(),
		LessonCount:  count,
	}
}

func ListPaths(c *gin.Context) {
	lang := requestLang(c)

	var paths []models.LearningPath
	if err := database.DB.Where("is_published = ?", true).Order("created_at ASC").Find(&paths).Error; err != nil {
		respondError(c, fmt.Errorf("list paths: %w", err))
		return
	}

	var rows []struct {
		PathID string
		Total  int64
	}
	if err := database.DB.Model(&models.PathLesson{}).
		Select("path_id, COUNT(*) AS total").
		Group("path_id").
		Scan(&rows).Error; err != nil {
		respondError(c, fmt.Errorf("count path lessons: %w", err))
		return
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.PathID] = r.Total
	}

	out := make([]PathSummary, len(paths))
	for i, p := range paths {
		out[i] = pathSummary(p, lang, counts[p.ID])
	}
	c.JSON(http.StatusOK, gin.H{"paths": out})
}

// GetPath returns the path with per-entry lock state and completion.
func GetPath(c *gin.Context) {
	learner, ok := currentLearner(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	lang := requestLang(c)

	path, states, err := services.PathStates(ctx, database.DB, learner, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]string, len(states))
	for i, s := range states {
		ids[i] = s.Entry.LessonID
	}
	completed, err := services.CompletedLessonIDs(ctx, database.DB, learner, ids)
	if err != nil {
		respondError(c, err)
		return
	}

	lessons := make([]LessonOutline, len(states))
	for i, s := range states {
		l := s.Entry.Lesson
		lessons[i] = LessonOutline{
			ID:          l.ID,
			Title:       l.Title(lang),
			Type:        l.Type,
			IsFree:      l.IsFree,
			Duration:    l.Duration,
			Order:       s.Entry.OrderNumber,
			Completed:   completed[l.ID],
			Access:      s.Decision,
			MinimumTier: s.Entry.RequiredTier.String(),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"path":    pathSummary(*path, lang, int64(len(states))),
		"lessons": lessons,
	})
}

// pathLessonState evaluates the lesson and writes the response when it is
// missing or locked.
func pathLessonState(c *gin.Context, learner *services.Learner) (*services.PathLessonState, bool) {
	state, err := services.PathLessonAccess(c.Request.Context(), database.DB, learner, c.Param("id"), c.Param("lessonId"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !state.Decision.Unlocked {
		respondLocked(c, state.Decision)
		return nil, false
	}
	return state, true
}

func GetPathLesson(c *gin.Context) {
	learner, ok := currentLearner(c)
	if !ok {
		return
	}
	state, ok := pathLessonState(c, learner)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	detail := lessonDetail(state.Entry.Lesson, requestLang(c))
	done, err := services.CompletedLessonIDs(ctx, database.DB, learner, []string{state.Entry.LessonID})
	if err != nil {
		respondError(c, err)
		return
	}
	detail.Completed = done[state.Entry.LessonID]

	if learner != nil {
		var attempt models.CodeAttempt
		if err := database.DB.WithContext(ctx).
			Where("client_id = ? AND lesson_id = ?", learner.ID, state.Entry.LessonID).
			Limit(1).Find(&attempt).Error; err == nil {
			detail.AttemptsCount = attempt.AttemptsCount
		}
	}

	c.JSON(http.StatusOK, gin.H{"lesson": detail, "access": state.Decision, "orderNumber": state.Entry.OrderNumber})
}
