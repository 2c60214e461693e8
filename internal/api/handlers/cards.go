package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleSearchCards handles GET /v1/cards/search?q=<name>
func HandleSearchCards(searcher CardSearcher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
			return
		}

		cards, err := searcher.Search(c.Request.Context(), query)
		if err != nil {
			logger.Warn("Card search failed", zap.Error(err), zap.String("query", query))
			c.JSON(http.StatusBadGateway, gin.H{"error": "card search failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": cards})
	}
}
