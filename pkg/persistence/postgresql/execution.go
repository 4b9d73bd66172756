package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const executionColumns = "id, flow_id, owner_id, status, trigger_data, state, current_node_id, step_count, resume_at, started_at, updated_at, completed_at"

// Save persists the execution exactly as given. The coordinator owns the
// UpdatedAt stamp; restamping here would hide how long a row has been idle.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	triggerDataJSON, err := json.Marshal(execution.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	stateJSON, err := json.Marshal(execution.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
		INSERT INTO executions (id, flow_id, owner_id, status, trigger_data, state, current_node_id, step_count, resume_at, started_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			current_node_id = EXCLUDED.current_node_id,
			step_count = EXCLUDED.step_count,
			resume_at = EXCLUDED.resume_at,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.FlowID,
		execution.OwnerID,
		execution.Status,
		triggerDataJSON,
		stateJSON,
		execution.CurrentNodeID,
		execution.StepCount,
		execution.ResumeAt,
		execution.StartedAt,
		execution.UpdatedAt,
		execution.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+executionColumns+" FROM executions WHERE id = $1", id)

	execution, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

func (r *ExecutionRepository) ListByFlow(ctx context.Context, flowID string) ([]*models.Execution, error) {
	return r.queryExecutions(ctx,
		"SELECT "+executionColumns+" FROM executions WHERE flow_id = $1 ORDER BY started_at DESC", flowID)
}

func (r *ExecutionRepository) ListStalled(ctx context.Context, olderThan time.Time) ([]*models.Execution, error) {
	return r.queryExecutions(ctx,
		`SELECT `+executionColumns+` FROM executions
		WHERE status = 'running' AND updated_at < $1
			AND (resume_at IS NULL OR resume_at <= NOW())
		ORDER BY updated_at`, olderThan)
}

func (r *ExecutionRepository) queryExecutions(ctx context.Context, query string, args ...any) ([]*models.Execution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var executions []*models.Execution

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	return executions, rows.Err()
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution       models.Execution
		triggerDataJSON []byte
		stateJSON       []byte
	)

	err := row.Scan(
		&execution.ID,
		&execution.FlowID,
		&execution.OwnerID,
		&execution.Status,
		&triggerDataJSON,
		&stateJSON,
		&execution.CurrentNodeID,
		&execution.StepCount,
		&execution.ResumeAt,
		&execution.StartedAt,
		&execution.UpdatedAt,
		&execution.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(triggerDataJSON, &execution.TriggerData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
	}

	err = json.Unmarshal(stateJSON, &execution.State)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &execution, nil
}

// ExecutionLogRepository appends audit entries; nothing in the engine updates
// or deletes them.
type ExecutionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *ExecutionLogRepository) Append(ctx context.Context, entry *models.ExecutionLogEntry) error {
	inputJSON, err := json.Marshal(entry.InputData)
	if err != nil {
		return fmt.Errorf("failed to marshal input data: %w", err)
	}

	outputJSON, err := json.Marshal(entry.OutputData)
	if err != nil {
		return fmt.Errorf("failed to marshal output data: %w", err)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO execution_log_entries (id, execution_id, node_id, node_type, input_data, output_data, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ExecutionID,
		entry.NodeID,
		entry.NodeType,
		inputJSON,
		outputJSON,
		entry.Status,
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append execution log entry: %w", err)
	}

	return nil
}

func (r *ExecutionLogRepository) ListByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLogEntry, error) {
	query := `
		SELECT id, execution_id, node_id, node_type, input_data, output_data, status, COALESCE(error_message, ''), created_at
		FROM execution_log_entries
		WHERE execution_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution log entries: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var entries []*models.ExecutionLogEntry

	for rows.Next() {
		var (
			entry      models.ExecutionLogEntry
			inputJSON  []byte
			outputJSON []byte
		)

		err := rows.Scan(
			&entry.ID,
			&entry.ExecutionID,
			&entry.NodeID,
			&entry.NodeType,
			&inputJSON,
			&outputJSON,
			&entry.Status,
			&entry.ErrorMessage,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log entry: %w", err)
		}

		err = json.Unmarshal(inputJSON, &entry.InputData)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal input data: %w", err)
		}

		err = json.Unmarshal(outputJSON, &entry.OutputData)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal output data: %w", err)
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
