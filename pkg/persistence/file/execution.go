package file

import (
	"context"
	"fmt"
	"time"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
)

const (
	executionsDir = "executions"
	logsDir       = "execution_logs"
)

// ExecutionRepository stores one JSON document per execution.
type ExecutionRepository struct {
	p *Persistence
}

// Save persists the execution exactly as given. The coordinator owns the
// UpdatedAt stamp; restamping here would hide how long a row has been idle.
func (r *ExecutionRepository) Save(_ context.Context, execution *models.Execution) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return r.p.writeDoc(executionsDir, execution.ID, execution)
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var execution models.Execution

	found, err := r.p.readDoc(executionsDir, id, &execution)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrExecutionNotFound
	}

	return &execution, nil
}

func (r *ExecutionRepository) ListByFlow(_ context.Context, flowID string) ([]*models.Execution, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	all, err := readAll[models.Execution](r.p, executionsDir)
	if err != nil {
		return nil, err
	}

	var executions []*models.Execution

	for _, execution := range all {
		if execution.FlowID == flowID {
			executions = append(executions, execution)
		}
	}

	return executions, nil
}

func (r *ExecutionRepository) ListStalled(_ context.Context, olderThan time.Time) ([]*models.Execution, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	all, err := readAll[models.Execution](r.p, executionsDir)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	var stalled []*models.Execution

	for _, execution := range all {
		if execution.Status != models.ExecutionStatusRunning || !execution.UpdatedAt.Before(olderThan) {
			continue
		}

		// Suspended on a delay, not stalled.
		if execution.ResumeAt != nil && execution.ResumeAt.After(now) {
			continue
		}

		stalled = append(stalled, execution)
	}

	return stalled, nil
}

// ExecutionLogRepository appends one JSON document per node step under
// execution_logs/<execution_id>/, named by step sequence so directory order
// is creation order.
type ExecutionLogRepository struct {
	p *Persistence
}

func (r *ExecutionLogRepository) Append(_ context.Context, entry *models.ExecutionLogEntry) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := validateID(entry.ExecutionID); err != nil {
		return err
	}

	dir := logsDir + "/" + entry.ExecutionID
	name := fmt.Sprintf("%s-%s", entry.CreatedAt.UTC().Format("20060102T150405.000000000"), entry.ID)

	return r.p.writeDoc(dir, name, entry)
}

func (r *ExecutionLogRepository) ListByExecution(_ context.Context, executionID string) ([]*models.ExecutionLogEntry, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	if err := validateID(executionID); err != nil {
		return nil, err
	}

	return readAll[models.ExecutionLogEntry](r.p, logsDir+"/"+executionID)
}
