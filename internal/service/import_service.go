package service

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/domain"
	"github.com/rareport/importcenter/internal/repository"
	"github.com/rareport/importcenter/pkg/errors"
)

// ErrHistoryDisabled is returned by History when no database is configured
var ErrHistoryDisabled = stderrors.New("import history is not enabled")

const historyWriteTimeout = 5 * time.Second

// ProductImporter runs one import workflow
type ProductImporter interface {
	ImportProduct(ctx context.Context, req *domain.ImportRequest) *domain.ImportResult
}

// ImportService is what the UI talks to: it validates, tracks and runs imports
type ImportService struct {
	importer ProductImporter
	tracker  *StatusTracker
	history  repository.ImportEventRepository
	webhook  string
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewImportService creates an ImportService. history may be nil.
func NewImportService(importer ProductImporter, tracker *StatusTracker, history repository.ImportEventRepository, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		importer: importer,
		tracker:  tracker,
		history:  history,
		logger:   logger,
	}
}

// WithWebhook makes the service POST every finished result to url
func (s *ImportService) WithWebhook(url string) *ImportService {
	s.webhook = url
	return s
}

// OnImportRequested validates the card and starts the import in the background.
// Validation errors and conflicts are returned before any remote call is made.
func (s *ImportService) OnImportRequested(ctx context.Context, card domain.CardRecord, selections domain.UISelections) (uuid.UUID, error) {
	req, runID, err := s.begin(card, selections)
	if err != nil {
		return uuid.Nil, err
	}

	// the import must outlive the HTTP request that started it
	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(runCtx, runID, req)
	}()
	return runID, nil
}

// Import runs the whole workflow synchronously and returns its result
func (s *ImportService) Import(ctx context.Context, card domain.CardRecord, selections domain.UISelections) (*domain.ImportResult, error) {
	req, runID, err := s.begin(card, selections)
	if err != nil {
		return nil, err
	}
	s.wg.Add(1)
	defer s.wg.Done()
	return s.run(ctx, runID, req), nil
}

func (s *ImportService) begin(card domain.CardRecord, selections domain.UISelections) (*domain.ImportRequest, uuid.UUID, error) {
	req, err := Sanitize(card, selections)
	if err != nil {
		s.logger.Info("Rejected import request", zap.String("card_id", card.ID), zap.Error(err))
		return nil, uuid.Nil, err
	}
	if req.SourceID == "" {
		return nil, uuid.Nil, &errors.ErrValidation{Message: "card id is required", Missing: []string{"id"}}
	}

	runID := uuid.New()
	if err := s.tracker.Begin(req.SourceID, runID); err != nil {
		return nil, uuid.Nil, err
	}
	s.logger.Info("Import started", zap.String("card_id", req.SourceID), zap.String("run_id", runID.String()))
	return req, runID, nil
}

func (s *ImportService) run(ctx context.Context, runID uuid.UUID, req *domain.ImportRequest) (result *domain.ImportResult) {
	defer func() {
		// a panic in a collaborator must not leave the card stuck in running
		if r := recover(); r != nil {
			s.logger.Error("Import panicked", zap.String("card_id", req.SourceID), zap.Any("panic", r))
			now := time.Now()
			result = &domain.ImportResult{
				RunID:        runID,
				CardID:       req.SourceID,
				Status:       domain.ImportStatusFailedRemote,
				ErrorMessage: "internal error during import",
				StartedAt:    now,
				FinishedAt:   now,
			}
			s.tracker.Complete(req.SourceID, result)
		}
	}()

	result = s.importer.ImportProduct(ctx, req)
	result.RunID = runID
	result.CardID = req.SourceID

	if !s.tracker.Complete(req.SourceID, result) {
		return result
	}
	s.logger.Info("Import finished",
		zap.String("card_id", req.SourceID),
		zap.String("run_id", runID.String()),
		zap.String("status", string(result.Status)),
	)
	s.recordHistory(ctx, result)
	NotifyImportFinished(ctx, s.webhook, result, s.logger)
	return result
}

func (s *ImportService) recordHistory(ctx context.Context, result *domain.ImportResult) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, historyWriteTimeout)
	defer cancel()

	if err := s.history.Create(ctx, NewImportEvent(result)); err != nil {
		// history is best effort; the tracker already has the result
		s.logger.Warn("Failed to record import history", zap.String("card_id", result.CardID), zap.Error(err))
	}
}

// NewImportEvent turns a finished result into a history record
func NewImportEvent(result *domain.ImportResult) *domain.ImportEvent {
	event := &domain.ImportEvent{
		RunID:  result.RunID,
		CardID: result.CardID,
		Status: result.Status,
		EventData: map[string]interface{}{
			"started_at":  result.StartedAt.UTC().Format(time.RFC3339Nano),
			"finished_at": result.FinishedAt.UTC().Format(time.RFC3339Nano),
		},
		CreatedAt: result.FinishedAt,
	}
	if result.ProductID != "" {
		productID := result.ProductID
		event.ProductID = &productID
		event.EventData["product_handle"] = result.ProductHandle
	}
	if result.ErrorMessage != "" {
		event.EventData["error_message"] = result.ErrorMessage
	}
	if len(result.FailedSteps) > 0 {
		steps := make([]string, len(result.FailedSteps))
		for n, step := range result.FailedSteps {
			steps[n] = string(step)
		}
		event.EventData["failed_steps"] = steps
		stepErrors := make(map[string]string, len(result.StepErrors))
		for step, msg := range result.StepErrors {
			stepErrors[string(step)] = msg
		}
		event.EventData["step_errors"] = stepErrors
	}
	return event
}

// GetStatus returns the tracker entry for a card
func (s *ImportService) GetStatus(id string) domain.TrackerEntry {
	return s.tracker.Query(id)
}

// History lists recorded imports of a card, newest first
func (s *ImportService) History(ctx context.Context, id string, limit int) ([]*domain.ImportEvent, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.ListByCardID(ctx, id, limit)
}

// HistoryEnabled reports whether imports are written to the database
func (s *ImportService) HistoryEnabled() bool {
	return s.history != nil
}

// Wait blocks until every running import has finished
func (s *ImportService) Wait() {
	s.wg.Wait()
}
