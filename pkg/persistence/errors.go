package persistence

import "errors"

// Standard persistence error types that all implementations must use so
// callers can branch without knowing the backend.
var (
	ErrFlowNotFound      = errors.New("flow not found")
	ErrExecutionNotFound = errors.New("execution not found")
	ErrLeadNotFound      = errors.New("lead not found")
	ErrSettingsNotFound  = errors.New("owner settings not found")
)

func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}
