package routes

import (
	"pizza-franchise-api/handlers"
	"pizza-franchise-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth", handlers.Register)
		public.PUT("/auth", handlers.Login)

		public.GET("/franchise", handlers.ListFranchises)
		public.GET("/order/menu", handlers.GetMenu)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.DELETE("/auth", handlers.Logout)
		auth.PUT("/auth/:userId", handlers.UpdateUser)

		auth.GET("/franchise/:userId", handlers.ListFranchisesForUser)
		auth.POST("/franchise", handlers.CreateFranchise)
		auth.DELETE("/franchise/:franchiseId", handlers.DeleteFranchise)
		auth.POST("/franchise/:franchiseId/store", handlers.CreateStore)
		auth.DELETE("/franchise/:franchiseId/store/:storeId", handlers.DeleteStore)

		auth.GET("/order", handlers.GetOrders)
		auth.POST("/order", handlers.CreateOrder)
		auth.PUT("/order/menu", handlers.AddMenuItem)
	}
}
