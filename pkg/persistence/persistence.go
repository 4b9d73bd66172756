// Package persistence provides the storage abstraction layer for flows,
// executions and the collaborator stores the node handlers read.
package persistence

import (
	"context"
	"time"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

// Persistence aggregates the repositories of one storage backend.
type Persistence interface {
	FlowRepository() FlowRepository
	ExecutionRepository() ExecutionRepository
	ExecutionLogRepository() ExecutionLogRepository
	LeadRepository() LeadRepository
	ServiceRepository() ServiceRepository
	AppointmentRepository() AppointmentRepository
	OwnerSettingsRepository() OwnerSettingsRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// FlowRepository stores automation definitions. The engine only reads them at
// execution time; writes come from the management API.
type FlowRepository interface {
	Save(ctx context.Context, flow *models.Flow) error
	GetByID(ctx context.Context, id string) (*models.Flow, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Flow, error)

	// ListActiveByTrigger pre-filters the trigger matcher's candidate set:
	// active flows of one owner with the given trigger type, in store order.
	ListActiveByTrigger(ctx context.Context, ownerID string, triggerType models.TriggerType) ([]*models.Flow, error)
}

// ExecutionRepository stores execution rows. Save is an upsert keyed by id;
// the coordinator is the only writer.
type ExecutionRepository interface {
	Save(ctx context.Context, execution *models.Execution) error
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	ListByFlow(ctx context.Context, flowID string) ([]*models.Execution, error)

	// ListStalled returns running executions whose cursor has not moved since
	// the given instant, excluding executions suspended on a resume time still
	// in the future. The watchdog re-dispatches their activations.
	ListStalled(ctx context.Context, olderThan time.Time) ([]*models.Execution, error)
}

// ExecutionLogRepository is append-only; entries are never mutated or deleted.
type ExecutionLogRepository interface {
	Append(ctx context.Context, entry *models.ExecutionLogEntry) error
	ListByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLogEntry, error)
}

type LeadRepository interface {
	Save(ctx context.Context, lead *models.Lead) error
	FindByPhone(ctx context.Context, ownerID, phone string) (*models.Lead, error)
	Update(ctx context.Context, leadID string, patch models.LeadPatch) error
}

type ServiceRepository interface {
	Save(ctx context.Context, service *models.Service) error
	ListActive(ctx context.Context, ownerID string) ([]*models.Service, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
}

type OwnerSettingsRepository interface {
	Save(ctx context.Context, settings *models.OwnerSettings) error
	Get(ctx context.Context, ownerID string) (*models.OwnerSettings, error)
}
