package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pix-disbursement-service/internal/api/handler"
	"github.com/pix-disbursement-service/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	installmentHandler *handler.InstallmentHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		installments := v1.Group("/installments")
		{
			installments.POST("", installmentHandler.Create)
			installments.POST("/sync", installmentHandler.SyncPending)
			installments.GET("/:id", installmentHandler.GetByID)
			installments.POST("/:id/send", installmentHandler.Send)
			installments.POST("/:id/sync", installmentHandler.Sync)
			installments.GET("/:id/audit", installmentHandler.AuditTrail)
			installments.DELETE("/:id", installmentHandler.Delete)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
