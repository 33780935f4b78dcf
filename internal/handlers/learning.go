package handlers

import (
	"errors"
	"net/http"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/internal/services"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func CompleteCourseLesson(c *gin.Context) {
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

	result, err := services.MarkComplete(c.Request.Context(), database.DB, learner, state.Lesson.ID, "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func CompletePathLesson(c *gin.Context) {
	learner, ok := currentLearner(c)
	if !ok {
		return
	}
	state, ok := pathLessonState(c, learner)
	if !ok {
		return
	}

	result, err := services.MarkComplete(c.Request.Context(), database.DB, learner, state.Entry.LessonID, state.Entry.PathID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type SubmitCodeInput struct {
	Code string `json:"code" binding:"required,max=50000"`
}

// SubmitPathLesson grades an interactive lesson. The grader itself never
// fails on oracle trouble; it falls back to local validation.
func SubmitPathLesson(c *gin.Context) {
	var input SubmitCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	learner, ok := currentLearner(c)
	if !ok {
		return
	}
	state, ok := pathLessonState(c, learner)
	if !ok {
		return
	}

	result, err := services.DefaultGrader.Submit(c.Request.Context(), database.DB, learner, state.Entry.LessonID, state.Entry.PathID, input.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type RunCodeInput struct {
	Code  string `json:"code" binding:"required,max=50000"`
	Stdin string `json:"stdin" binding:"max=10000"`
}

// RunPathLesson executes code for a preview. Nothing is graded or recorded.
func RunPathLesson(c *gin.Context) {
	var input RunCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	learner, ok := currentLearner(c)
	if !ok {
		return
	}
	state, ok := pathLessonState(c, learner)
	if !ok {
		return
	}
	if !state.Entry.Lesson.IsInteractive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lesson has no code challenge"})
		return
	}

	out, err := services.DefaultRunner.Execute(c.Request.Context(), state.Entry.Lesson.ProgrammingLanguage, input.Code, input.Stdin)
	if err != nil {
		logger.Warn().Err(err).Str("lesson_id", state.Entry.LessonID).Msg("Code execution failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Code execution service unavailable"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// CourseProgress reports how much of a course the caller has completed.
func CourseProgress(c *gin.Context) {
	learner, ok := currentLearner(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	courseID := c.Param("id")

	var course models.Course
	if err := database.DB.Select("id").First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return
		}
		respondError(c, err)
		return
	}

	completed, total, err := services.CourseCompletion(ctx, database.DB, learner.ID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}

	percentage := 0
	if total > 0 {
		percentage = int(completed * 100 / total)
	}

	var cert models.Certificate
	var certificate *models.Certificate
	if err := database.DB.Where("client_id = ? AND course_id = ?", learner.ID, courseID).Limit(1).Find(&cert).Error; err == nil && cert.ID != "" {
		certificate = &cert
	}

	c.JSON(http.StatusOK, gin.H{
		"courseId":    courseID,
		"completed":   completed,
		"total":       total,
		"percentage":  percentage,
		"certificate": certificate,
	})
}
