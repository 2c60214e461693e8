package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/repository"
)

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		ImportEvent: NewImportEventRepository(db, logger),
	}
}
