package routes

import (
	"github.com/akrammlh02/elearning-backend/internal/handlers"
	"github.com/akrammlh02/elearning-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterCommerceRoutes(r gin.IRouter) {
	cart := r.Group("/cart")
	cart.Use(middleware.AuthMiddleware())
	{
		cart.GET("", handlers.GetCart)
		cart.POST("", handlers.AddToCart)
		cart.DELETE("", handlers.ClearCart)
		cart.DELETE("/:courseId", handlers.RemoveFromCart)
	}

	payments := r.Group("/payments")
	payments.Use(middleware.AuthMiddleware())
	{
		payments.GET("", handlers.ListMyPayments)
		payments.POST("/checkout", handlers.Checkout)
		payments.POST("/membership", handlers.MembershipCheckout)
		payments.POST("/verify", handlers.VerifyPayment)
		payments.POST("/:ref/receipt", handlers.UploadReceipt)
	}
}

// RegisterWebhookRoutes is mounted outside maintenance mode so captures are
// never lost.
func RegisterWebhookRoutes(r gin.IRouter) {
	r.POST("/webhooks/razorpay", handlers.RazorpayWebhook)
}
