package routes

import (
	"github.com/akrammlh02/elearning-backend/internal/handlers"
	"github.com/akrammlh02/elearning-backend/internal/middleware"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterCatalogRoutes exposes courses and learning paths. Reads are open to
// guests; the access evaluator decides per lesson.
func RegisterCatalogRoutes(r gin.IRouter) {
	courses := r.Group("/courses")
	{
		courses.GET("", handlers.ListCourses)
		courses.GET("/:id", handlers.GetCourse)
		courses.GET("/:id/lessons/:lessonId", handlers.GetCourseLesson)
		courses.GET("/:id/progress", middleware.AuthMiddleware(), handlers.CourseProgress)
		courses.POST("/:id/lessons/:lessonId/complete", middleware.AuthMiddleware(), handlers.CompleteCourseLesson)
	}

	paths := r.Group("/paths")
	{
		paths.GET("", handlers.ListPaths)
		paths.GET("/:id", handlers.GetPath)
		paths.GET("/:id/lessons/:lessonId", handlers.GetPathLesson)
		paths.POST("/:id/lessons/:lessonId/complete", middleware.AuthMiddleware(), handlers.CompletePathLesson)
	}

	interactive := paths.Group("/:id/lessons/:lessonId")
	interactive.Use(
		middleware.AuthMiddleware(),
		middleware.FeatureGate(models.SettingInteractiveLessons, "Interactive lessons"),
	)
	{
		interactive.POST("/submit", middleware.SubmitRateLimit(), handlers.SubmitPathLesson)
		interactive.POST("/run", middleware.ExecuteRateLimit(), handlers.RunPathLesson)
	}

	certificates := r.Group("/certificates")
	{
		certificates.GET("/verify/:number", handlers.VerifyCertificate)
		certificates.GET("/me", middleware.AuthMiddleware(), handlers.ListMyCertificates)
	}
}
