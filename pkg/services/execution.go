package services

import (
	"context"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
)

// ErrExecutionNotFound is returned when an execution does not exist.
var ErrExecutionNotFound = persistence.ErrExecutionNotFound

// Execution is the observability read side: executions and their append-only
// log, for operators and debugging. The engine never reads the log back.
type Execution struct {
	persistence persistence.Persistence
}

func NewExecution(p persistence.Persistence) *Execution {
	return &Execution{persistence: p}
}

func (s *Execution) Get(ctx context.Context, id string) (*models.Execution, error) {
	return s.persistence.ExecutionRepository().GetByID(ctx, id)
}

func (s *Execution) ListByFlow(ctx context.Context, flowID string) ([]*models.Execution, error) {
	return s.persistence.ExecutionRepository().ListByFlow(ctx, flowID)
}

// Log returns the execution's log entries in creation order.
func (s *Execution) Log(ctx context.Context, executionID string) ([]*models.ExecutionLogEntry, error) {
	if _, err := s.persistence.ExecutionRepository().GetByID(ctx, executionID); err != nil {
		return nil, err
	}

	return s.persistence.ExecutionLogRepository().ListByExecution(ctx, executionID)
}
