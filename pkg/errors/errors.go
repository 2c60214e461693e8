package errors

import (
	"fmt"
	"strings"

	"github.com/rareport/importcenter/internal/domain"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrConflict is returned when an import for the same card is already running
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrValidation is returned when a card cannot be turned into an import request.
// Missing lists the required fields that were empty, in declaration order.
type ErrValidation struct {
	Message string
	Missing []string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Missing) > 0 {
		return "missing required fields: " + strings.Join(e.Missing, ", ")
	}
	return "validation failed"
}

// ErrRemoteFatal is returned when a step the product depends on fails; nothing was created
type ErrRemoteFatal struct {
	Step string
	Err  error
}

func (e *ErrRemoteFatal) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *ErrRemoteFatal) Unwrap() error {
	return e.Err
}

// StepFailure records an enrichment step that failed after the product was created
type StepFailure struct {
	Step domain.Step
	Err  error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepFailure) Unwrap() error {
	return e.Err
}

// ErrInvalidStateTransition is returned when an invalid tracker transition is attempted
type ErrInvalidStateTransition struct {
	From domain.TrackerState
	To   domain.TrackerState
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}
