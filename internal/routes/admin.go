package routes

import (
	"github.com/akrammlh02/elearning-backend/internal/handlers"
	"github.com/akrammlh02/elearning-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterAdminRoutes(r gin.IRouter) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminOnly())

	admin.GET("/dashboard", handlers.AdminGetDashboard)

	// Users
	admin.GET("/users", handlers.AdminListUsers)
	admin.POST("/users/:id/block", handlers.AdminBlockUser)
	admin.POST("/users/:id/unblock", handlers.AdminUnblockUser)
	admin.POST("/users/:id/membership", handlers.AdminGrantMembership)

	// Courses
	admin.GET("/courses", handlers.AdminListCourses)
	admin.POST("/courses", handlers.AdminCreateCourse)
	admin.GET("/courses/:id", handlers.AdminGetCourse)
	admin.PUT("/courses/:id", handlers.AdminUpdateCourse)
	admin.DELETE("/courses/:id", handlers.AdminDeleteCourse)
	admin.POST("/courses/:id/chapters", handlers.AdminCreateChapter)

	admin.PUT("/chapters/:id", handlers.AdminUpdateChapter)
	admin.DELETE("/chapters/:id", handlers.AdminDeleteChapter)
	admin.POST("/chapters/:id/move", handlers.AdminMoveChapter)

	admin.POST("/lessons", handlers.AdminCreateLesson)
	admin.GET("/lessons/:id", handlers.AdminGetLesson)
	admin.PUT("/lessons/:id", handlers.AdminUpdateLesson)
	admin.DELETE("/lessons/:id", handlers.AdminDeleteLesson)
	admin.POST("/lessons/:id/move", handlers.AdminMoveLesson)

	// Learning paths
	admin.GET("/paths", handlers.AdminListPaths)
	admin.POST("/paths", handlers.AdminCreatePath)
	admin.GET("/paths/:id", handlers.AdminGetPath)
	admin.PUT("/paths/:id", handlers.AdminUpdatePath)
	admin.DELETE("/paths/:id", handlers.AdminDeletePath)
	admin.POST("/paths/:id/lessons", handlers.AdminAddPathLesson)
	admin.PUT("/path-lessons/:entryId", handlers.AdminUpdatePathLesson)
	admin.DELETE("/path-lessons/:entryId", handlers.AdminRemovePathLesson)

	// Payments & certificates
	admin.GET("/payments", handlers.AdminListPayments)
	admin.POST("/payments/:ref/approve", handlers.AdminApprovePayment)
	admin.POST("/payments/:ref/reject", handlers.AdminRejectPayment)
	admin.GET("/certificates", handlers.AdminListCertificates)
	admin.DELETE("/certificates/:id", handlers.AdminDeleteCertificate)

	// System
	admin.GET("/audit-logs", handlers.AdminGetAuditLogs)
	admin.GET("/settings", handlers.AdminGetSystemSettings)
	admin.PUT("/settings", handlers.AdminUpdateSystemSettings)
}

func RegisterSystemRoutes(r gin.IRouter) {
	r.GET("/system/status", handlers.PublicGetSystemStatus)
}
