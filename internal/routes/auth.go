package routes

import (
	"github.com/akrammlh02/elearning-backend/internal/handlers"
	"github.com/akrammlh02/elearning-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterAuthRoutes(r gin.IRouter) {
	auth := r.Group("/auth")

	auth.POST("/register", middleware.AuthRateLimit(), middleware.RequireRegistrationOpen(), handlers.Register)
	auth.POST("/login", middleware.AuthRateLimit(), handlers.Login)
	// logout needs the claims to blacklist the token
	auth.POST("/logout", middleware.AuthMiddleware(), handlers.Logout)

	auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
	auth.PUT("/me", middleware.AuthMiddleware(), handlers.UpdateMe)

	// OAuth
	auth.GET("/google/login", handlers.GoogleLogin)
	auth.GET("/google/callback", handlers.GoogleCallback)
	auth.GET("/github/login", handlers.GithubLogin)
	auth.GET("/github/callback", handlers.GithubCallback)
}
