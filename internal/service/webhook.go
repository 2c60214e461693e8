package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/domain"
)

const webhookTimeout = 10 * time.Second

// NotifyImportFinished posts the finished result to webhookURL. Failures are only logged.
func NotifyImportFinished(ctx context.Context, webhookURL string, result *domain.ImportResult, logger *zap.Logger) {
	if webhookURL == "" || result == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"event":  "import_finished",
		"result": result,
	})
	if err != nil {
		logger.Warn("Webhook: failed to marshal import result", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		logger.Warn("Webhook: failed to create request", zap.String("url", webhookURL), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Warn("Webhook: import notification request failed", zap.String("url", webhookURL), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("Webhook: import notification returned non-2xx",
			zap.String("url", webhookURL), zap.Int("status", resp.StatusCode))
		return
	}
	logger.Info("Webhook: import notification sent", zap.String("url", webhookURL), zap.String("card_id", result.CardID))
}
