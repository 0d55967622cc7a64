package api

import (
	"net/http"

	"github.com/d093w1z/deinbox/internal/auth/delivery"
	cleanupDelivery "github.com/d093w1z/deinbox/internal/cleanup/delivery"
	emailDelivery "github.com/d093w1z/deinbox/internal/email/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	authHandler := delivery.NewAuthHandler(h.authUsecase, h.log.Named("auth"))
	emailHandler := emailDelivery.NewEmailHandler(h.emailUsecase, h.log.Named("email"))
	cleanupHandler := cleanupDelivery.NewCleanupHandler(h.cleanupUsecase, h.log.Named("cleanup"))
	requireAuth := delivery.AuthMiddleware(h.authUsecase)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": h.cache.State().String()})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.GET("/google/url", authHandler.GoogleAuthURL)
			auth.POST("/google", authHandler.GoogleSignIn)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		api.GET("/user/avatar", requireAuth, authHandler.Avatar)

		// Gmail routes (protected)
		gmail := api.Group("/gmail")
		gmail.Use(requireAuth)
		{
			gmail.GET("", emailHandler.GetDashboard)
			gmail.GET("/profile", emailHandler.GetProfile)
			gmail.GET("/messages", emailHandler.GetMessages)
			gmail.GET("/stats", emailHandler.GetStats)
			gmail.GET("/search", emailHandler.Search)
			gmail.GET("/unsubscribe", emailHandler.GetUnsubscribeInfo)
			gmail.POST("/unsubscribe", emailHandler.Unsubscribe)
			gmail.POST("/bulk-action", emailHandler.BulkAction)
			gmail.GET("/actions", emailHandler.ListActions)
		}

		// Cleanup heuristics (protected)
		ai := api.Group("/ai")
		ai.Use(requireAuth)
		{
			ai.GET("/suggestions", cleanupHandler.GetSuggestions)
			ai.GET("/categories", cleanupHandler.GetCategories)
			ai.GET("/filters/:id", cleanupHandler.ApplySmartFilter)
		}
	}
}
