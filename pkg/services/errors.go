// Package services holds the flow management layer between the HTTP surface
// and persistence: validation on save, activation, and the execution read side.
package services

import (
	"errors"
	"fmt"
)

// Validation errors surface as 400 responses.
var (
	ErrFlowNil             = errors.New("flow cannot be nil")
	ErrFlowNameRequired    = errors.New("flow name is required")
	ErrNodesRequired       = errors.New("flow must have at least one node")
	ErrTriggerNodeRequired = errors.New("flow must have exactly one trigger node")
	ErrEdgeDangling        = errors.New("edge references a node that does not exist")
	ErrInvalidNodeConfig   = errors.New("invalid node configuration")
	ErrEmptyOwnerID        = errors.New("owner ID cannot be empty")
)

func IsValidationError(err error) bool {
	return errors.Is(err, ErrFlowNil) ||
		errors.Is(err, ErrFlowNameRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrTriggerNodeRequired) ||
		errors.Is(err, ErrEdgeDangling) ||
		errors.Is(err, ErrInvalidNodeConfig) ||
		errors.Is(err, ErrEmptyOwnerID)
}

// ValidationError attaches the offending node or edge to a sentinel.
type ValidationError struct {
	Subject string // node or edge id
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Subject, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
