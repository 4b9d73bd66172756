// Package postgresql provides the production persistence layer.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	flowRepo        *FlowRepository
	executionRepo   *ExecutionRepository
	logRepo         *ExecutionLogRepository
	leadRepo        *LeadRepository
	serviceRepo     *ServiceRepository
	appointmentRepo *AppointmentRepository
	settingsRepo    *OwnerSettingsRepository
}

// NewPersistence opens the database, runs migrations and wires repositories.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:              database,
		logger:          logger,
		flowRepo:        &FlowRepository{db: database, logger: logger},
		executionRepo:   &ExecutionRepository{db: database, logger: logger},
		logRepo:         &ExecutionLogRepository{db: database, logger: logger},
		leadRepo:        &LeadRepository{db: database},
		serviceRepo:     &ServiceRepository{db: database},
		appointmentRepo: &AppointmentRepository{db: database},
		settingsRepo:    &OwnerSettingsRepository{db: database},
	}, nil
}

func (p *Persistence) FlowRepository() persistence.FlowRepository           { return p.flowRepo }
func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository { return p.executionRepo }
func (p *Persistence) ExecutionLogRepository() persistence.ExecutionLogRepository {
	return p.logRepo
}
func (p *Persistence) LeadRepository() persistence.LeadRepository       { return p.leadRepo }
func (p *Persistence) ServiceRepository() persistence.ServiceRepository { return p.serviceRepo }
func (p *Persistence) AppointmentRepository() persistence.AppointmentRepository {
	return p.appointmentRepo
}
func (p *Persistence) OwnerSettingsRepository() persistence.OwnerSettingsRepository {
	return p.settingsRepo
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS flows (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				name TEXT NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT FALSE,
				trigger_type TEXT NOT NULL,
				trigger_config JSONB NOT NULL DEFAULT '{}',
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_flows_owner_trigger
				ON flows (owner_id, trigger_type) WHERE is_active;

			CREATE TABLE IF NOT EXISTS executions (
				id TEXT PRIMARY KEY,
				flow_id TEXT NOT NULL,
				owner_id TEXT NOT NULL,
				status TEXT NOT NULL,
				trigger_data JSONB NOT NULL DEFAULT '{}',
				state JSONB NOT NULL DEFAULT '{}',
				current_node_id TEXT,
				step_count INTEGER NOT NULL DEFAULT 0,
				resume_at TIMESTAMP WITH TIME ZONE,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_executions_flow ON executions (flow_id);
			CREATE INDEX IF NOT EXISTS idx_executions_stalled
				ON executions (updated_at) WHERE status = 'running';

			CREATE TABLE IF NOT EXISTS execution_log_entries (
				id TEXT PRIMARY KEY,
				execution_id TEXT NOT NULL,
				node_id TEXT NOT NULL,
				node_type TEXT NOT NULL,
				input_data JSONB NOT NULL DEFAULT '{}',
				output_data JSONB NOT NULL DEFAULT '{}',
				status TEXT NOT NULL,
				error_message TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_execution_log_execution
				ON execution_log_entries (execution_id, created_at);

			CREATE TABLE IF NOT EXISTS leads (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				phone TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				stage TEXT NOT NULL DEFAULT '',
				tags TEXT[] NOT NULL DEFAULT '{}',
				notes TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_owner_phone ON leads (owner_id, phone);

			CREATE TABLE IF NOT EXISTS services (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				name TEXT NOT NULL,
				price_cents BIGINT NOT NULL DEFAULT 0,
				duration_minutes INTEGER NOT NULL DEFAULT 0,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_services_owner ON services (owner_id) WHERE is_active;

			CREATE TABLE IF NOT EXISTS appointments (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				service_id TEXT NOT NULL,
				contact_name TEXT NOT NULL DEFAULT '',
				contact_phone TEXT NOT NULL,
				scheduled_for TIMESTAMP WITH TIME ZONE NOT NULL,
				status TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS owner_settings (
				owner_id TEXT PRIMARY KEY,
				whatsapp_number_id TEXT NOT NULL DEFAULT '',
				whatsapp_token TEXT NOT NULL DEFAULT '',
				ai_api_key TEXT NOT NULL DEFAULT '',
				ai_model TEXT NOT NULL DEFAULT '',
				checkout_base_url TEXT NOT NULL DEFAULT ''
			);
		`,
	}
}
