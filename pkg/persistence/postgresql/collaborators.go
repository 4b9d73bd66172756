package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
)

// LeadRepository backs the crm node.
type LeadRepository struct {
	db *sql.DB
}

func (r *LeadRepository) Save(ctx context.Context, lead *models.Lead) error {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	lead.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO leads (id, owner_id, phone, name, stage, tags, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			stage = EXCLUDED.stage,
			tags = EXCLUDED.tags,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		lead.ID, lead.OwnerID, lead.Phone, lead.Name, lead.Stage,
		pq.Array(lead.Tags), lead.Notes, lead.CreatedAt, lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}

	return nil
}

func (r *LeadRepository) FindByPhone(ctx context.Context, ownerID, phone string) (*models.Lead, error) {
	query := `
		SELECT id, owner_id, phone, name, stage, tags, notes, created_at, updated_at
		FROM leads
		WHERE owner_id = $1 AND phone = $2
	`

	var lead models.Lead

	err := r.db.QueryRowContext(ctx, query, ownerID, phone).Scan(
		&lead.ID, &lead.OwnerID, &lead.Phone, &lead.Name, &lead.Stage,
		pq.Array(&lead.Tags), &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrLeadNotFound
		}

		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}

	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, leadID string, patch models.LeadPatch) error {
	query := `
		UPDATE leads SET
			stage = COALESCE($2, stage),
			tags = tags || $3,
			notes = CASE
				WHEN $4::text IS NULL THEN notes
				WHEN notes = '' THEN $4
				ELSE notes || E'\n' || $4
			END,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, leadID, patch.Stage, pq.Array(patch.AddTags), patch.AppendNote)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check lead update: %w", err)
	}

	if affected == 0 {
		return persistence.ErrLeadNotFound
	}

	return nil
}

// ServiceRepository backs the calendar and checkout nodes.
type ServiceRepository struct {
	db *sql.DB
}

func (r *ServiceRepository) Save(ctx context.Context, service *models.Service) error {
	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO services (id, owner_id, name, price_cents, duration_minutes, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price_cents = EXCLUDED.price_cents,
			duration_minutes = EXCLUDED.duration_minutes,
			is_active = EXCLUDED.is_active
	`

	_, err := r.db.ExecContext(ctx, query,
		service.ID, service.OwnerID, service.Name, service.PriceCents,
		service.DurationMinutes, service.IsActive, service.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save service: %w", err)
	}

	return nil
}

func (r *ServiceRepository) ListActive(ctx context.Context, ownerID string) ([]*models.Service, error) {
	query := `
		SELECT id, owner_id, name, price_cents, duration_minutes, is_active, created_at
		FROM services
		WHERE owner_id = $1 AND is_active
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service

	for rows.Next() {
		var service models.Service

		err := rows.Scan(&service.ID, &service.OwnerID, &service.Name,
			&service.PriceCents, &service.DurationMinutes, &service.IsActive, &service.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}

		services = append(services, &service)
	}

	return services, rows.Err()
}

// AppointmentRepository backs the calendar node.
type AppointmentRepository struct {
	db *sql.DB
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO appointments (id, owner_id, service_id, contact_name, contact_phone, scheduled_for, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID, appointment.OwnerID, appointment.ServiceID,
		appointment.ContactName, appointment.ContactPhone,
		appointment.ScheduledFor, appointment.Status, appointment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	return nil
}

// OwnerSettingsRepository stores per-tenant channel and AI credentials.
type OwnerSettingsRepository struct {
	db *sql.DB
}

func (r *OwnerSettingsRepository) Save(ctx context.Context, settings *models.OwnerSettings) error {
	query := `
		INSERT INTO owner_settings (owner_id, whatsapp_number_id, whatsapp_token, ai_api_key, ai_model, checkout_base_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id) DO UPDATE SET
			whatsapp_number_id = EXCLUDED.whatsapp_number_id,
			whatsapp_token = EXCLUDED.whatsapp_token,
			ai_api_key = EXCLUDED.ai_api_key,
			ai_model = EXCLUDED.ai_model,
			checkout_base_url = EXCLUDED.checkout_base_url
	`

	_, err := r.db.ExecContext(ctx, query,
		settings.OwnerID, settings.WhatsAppNumberID, settings.WhatsAppToken,
		settings.AIAPIKey, settings.AIModel, settings.CheckoutBaseURL)
	if err != nil {
		return fmt.Errorf("failed to save owner settings: %w", err)
	}

	return nil
}

func (r *OwnerSettingsRepository) Get(ctx context.Context, ownerID string) (*models.OwnerSettings, error) {
	query := `
		SELECT owner_id, whatsapp_number_id, whatsapp_token, ai_api_key, ai_model, checkout_base_url
		FROM owner_settings
		WHERE owner_id = $1
	`

	var settings models.OwnerSettings

	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&settings.OwnerID, &settings.WhatsAppNumberID, &settings.WhatsAppToken,
		&settings.AIAPIKey, &settings.AIModel, &settings.CheckoutBaseURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrSettingsNotFound
		}

		return nil, fmt.Errorf("failed to scan owner settings: %w", err)
	}

	return &settings, nil
}
