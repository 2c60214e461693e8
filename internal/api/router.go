package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/api/handlers"
	"github.com/rareport/importcenter/internal/config"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, searcher handlers.CardSearcher, imports handlers.ImportRunner, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Root: friendly response so GET / returns 200 instead of 404
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Rareport Import Center",
			"endpoints": []string{
				"GET /health",
				"GET /v1/cards/search?q=",
				"POST /v1/imports",
				"GET /v1/imports/:id",
				"GET /v1/imports/:id/history",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"history": imports.HistoryEnabled(),
		})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/cards/search", handlers.HandleSearchCards(searcher, logger))

		v1.POST("/imports", handlers.HandleCreateImport(imports, logger))
		v1.GET("/imports/:id", handlers.HandleGetImport(imports))
		v1.GET("/imports/:id/history", handlers.HandleGetImportHistory(imports, logger))
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
