package repository

import (
	"context"

	"github.com/rareport/importcenter/internal/domain"
)

// ImportEventRepository defines import history data access methods
type ImportEventRepository interface {
	Create(ctx context.Context, event *domain.ImportEvent) error
	ListByCardID(ctx context.Context, cardID string, limit int) ([]*domain.ImportEvent, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	ImportEvent ImportEventRepository
}
