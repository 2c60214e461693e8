package service

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/domain"
	"github.com/rareport/importcenter/pkg/errors"
)

// StatusTracker holds the current import state per card id. It is safe for concurrent use.
type StatusTracker struct {
	mu      sync.Mutex
	entries map[string]*domain.TrackerEntry
	logger  *zap.Logger
}

// NewStatusTracker creates an empty tracker
func NewStatusTracker(logger *zap.Logger) *StatusTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusTracker{
		entries: make(map[string]*domain.TrackerEntry),
		logger:  logger,
	}
}

// Begin marks the card as running under runID and clears any previous result.
// It returns *errors.ErrConflict if an import of the card is already running.
func (t *StatusTracker) Begin(id string, runID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := domain.TrackerStateIdle
	if entry, ok := t.entries[id]; ok {
		current = entry.State
	}
	if current == domain.TrackerStateRunning {
		return &errors.ErrConflict{Message: "import already running for card " + id}
	}
	if !current.CanTransitionTo(domain.TrackerStateRunning) {
		return &errors.ErrInvalidStateTransition{From: current, To: domain.TrackerStateRunning}
	}

	t.entries[id] = &domain.TrackerEntry{
		CardID: id,
		State:  domain.TrackerStateRunning,
		RunID:  runID,
	}
	return nil
}

// Complete records the result of a running import. Completions for cards that are
// not running, or for a run other than the current one, are ignored and return false.
func (t *StatusTracker) Complete(id string, result *domain.ImportResult) bool {
	if result == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[id]
	if !ok || entry.State != domain.TrackerStateRunning {
		t.logger.Warn("Ignoring completion for card that is not running",
			zap.String("card_id", id),
			zap.String("status", string(result.Status)),
		)
		return false
	}
	if result.RunID != uuid.Nil && result.RunID != entry.RunID {
		t.logger.Warn("Ignoring completion from a stale run",
			zap.String("card_id", id),
			zap.String("run_id", result.RunID.String()),
			zap.String("current_run_id", entry.RunID.String()),
		)
		return false
	}

	next := domain.TrackerStateFor(result.Status)
	if !entry.State.CanTransitionTo(next) {
		t.logger.Warn("Ignoring completion with non-terminal status",
			zap.String("card_id", id),
			zap.String("status", string(result.Status)),
		)
		return false
	}

	entry.State = next
	entry.Result = cloneResult(result)
	return true
}

// Query returns a copy of the entry for id; unknown ids are idle
func (t *StatusTracker) Query(id string) domain.TrackerEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[id]
	if !ok {
		return domain.TrackerEntry{CardID: id, State: domain.TrackerStateIdle}
	}
	out := *entry
	out.Result = cloneResult(entry.Result)
	return out
}

// cloneResult copies a result including its step slice and map
func cloneResult(result *domain.ImportResult) *domain.ImportResult {
	if result == nil {
		return nil
	}
	out := *result
	if result.FailedSteps != nil {
		out.FailedSteps = append([]domain.Step(nil), result.FailedSteps...)
	}
	if result.StepErrors != nil {
		out.StepErrors = make(map[domain.Step]string, len(result.StepErrors))
		for step, msg := range result.StepErrors {
			out.StepErrors[step] = msg
		}
	}
	return &out
}
