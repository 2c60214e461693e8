package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/domain"
	"github.com/rareport/importcenter/pkg/errors"
)

// ImportRequestBody is the POST /v1/imports payload
type ImportRequestBody struct {
	Card       domain.CardRecord   `json:"card"`
	Selections domain.UISelections `json:"selections"`
}

// HandleCreateImport handles POST /v1/imports
func HandleCreateImport(imports ImportRunner, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body ImportRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid request body",
				"details": err.Error(),
			})
			return
		}

		runID, err := imports.OnImportRequested(c.Request.Context(), body.Card, body.Selections)
		if err != nil {
			switch e := err.(type) {
			case *errors.ErrValidation:
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   e.Error(),
					"missing": e.Missing,
				})
			case *errors.ErrConflict:
				c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
			default:
				logger.Error("Failed to start import", zap.Error(err), zap.String("card_id", body.Card.ID))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		id := strings.TrimSpace(body.Card.ID)
		c.JSON(http.StatusAccepted, gin.H{
			"id":     id,
			"run_id": runID,
			"state":  imports.GetStatus(id).State,
		})
	}
}

// HandleGetImport handles GET /v1/imports/:id
func HandleGetImport(imports ImportRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, imports.GetStatus(c.Param("id")))
	}
}

// HandleGetImportHistory handles GET /v1/imports/:id/history
func HandleGetImportHistory(imports ImportRunner, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !imports.HistoryEnabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "import history is not enabled"})
			return
		}
		limit := 20
		if l := c.Query("limit"); l != "" {
			if n, err := strconv.Atoi(l); err == nil && n >= 1 && n <= 50 {
				limit = n
			}
		}

		id := c.Param("id")
		events, err := imports.History(c.Request.Context(), id, limit)
		if err != nil {
			logger.Error("Failed to list import history", zap.Error(err), zap.String("card_id", id))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		data := make([]gin.H, 0, len(events))
		for _, e := range events {
			data = append(data, gin.H{
				"id":         e.ID,
				"run_id":     e.RunID,
				"card_id":    e.CardID,
				"status":     e.Status,
				"product_id": e.ProductID,
				"data":       e.EventData,
				"created_at": e.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"data": data})
	}
}
