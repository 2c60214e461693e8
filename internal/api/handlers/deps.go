package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/rareport/importcenter/internal/domain"
)

// CardSearcher finds cards in the external trading-card API
type CardSearcher interface {
	Search(ctx context.Context, query string) ([]domain.CardRecord, error)
}

// ImportRunner is the import surface the UI calls
type ImportRunner interface {
	OnImportRequested(ctx context.Context, card domain.CardRecord, selections domain.UISelections) (uuid.UUID, error)
	GetStatus(id string) domain.TrackerEntry
	History(ctx context.Context, id string, limit int) ([]*domain.ImportEvent, error)
	HistoryEnabled() bool
}
