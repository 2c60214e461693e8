package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/domain"
)

// DefaultHistoryLimit caps ListByCardID when no limit is given
const DefaultHistoryLimit = 50

type importEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewImportEventRepository creates a new import event repository
func NewImportEventRepository(db *sql.DB, logger *zap.Logger) *importEventRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &importEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *importEventRepository) Create(ctx context.Context, event *domain.ImportEvent) error {
	query := `
		INSERT INTO import_events (id, run_id, card_id, status, product_id, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var eventDataJSON []byte
	var err error
	if event.EventData != nil {
		eventDataJSON, err = json.Marshal(event.EventData)
		if err != nil {
			return err
		}
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.RunID,
		event.CardID,
		event.Status,
		event.ProductID,
		eventDataJSON,
		event.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create import event", zap.Error(err), zap.String("card_id", event.CardID))
		return err
	}

	return nil
}

// ListByCardID returns the newest events first
func (r *importEventRepository) ListByCardID(ctx context.Context, cardID string, limit int) ([]*domain.ImportEvent, error) {
	query := `
		SELECT id, run_id, card_id, status, product_id, event_data, created_at
		FROM import_events
		WHERE card_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx, query, cardID, limit)
	if err != nil {
		r.logger.Error("Failed to get import events by card ID", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []*domain.ImportEvent
	for rows.Next() {
		var event domain.ImportEvent
		var productID sql.NullString
		var eventDataJSON []byte

		err := rows.Scan(
			&event.ID,
			&event.RunID,
			&event.CardID,
			&event.Status,
			&productID,
			&eventDataJSON,
			&event.CreatedAt,
		)

		if err != nil {
			return nil, err
		}

		if productID.Valid {
			event.ProductID = &productID.String
		}
		if len(eventDataJSON) > 0 {
			if err := json.Unmarshal(eventDataJSON, &event.EventData); err != nil {
				return nil, err
			}
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}
