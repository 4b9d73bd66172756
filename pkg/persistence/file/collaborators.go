package file

import (
	"context"
	"time"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
)

const (
	leadsDir        = "leads"
	servicesDir     = "services"
	appointmentsDir = "appointments"
	settingsDir     = "owner_settings"
)

type LeadRepository struct {
	p *Persistence
}

func (r *LeadRepository) Save(_ context.Context, lead *models.Lead) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	lead.UpdatedAt = time.Now().UTC()

	return r.p.writeDoc(leadsDir, lead.ID, lead)
}

func (r *LeadRepository) FindByPhone(_ context.Context, ownerID, phone string) (*models.Lead, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	all, err := readAll[models.Lead](r.p, leadsDir)
	if err != nil {
		return nil, err
	}

	for _, lead := range all {
		if lead.OwnerID == ownerID && lead.Phone == phone {
			return lead, nil
		}
	}

	return nil, persistence.ErrLeadNotFound
}

func (r *LeadRepository) Update(_ context.Context, leadID string, patch models.LeadPatch) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	var lead models.Lead

	found, err := r.p.readDoc(leadsDir, leadID, &lead)
	if err != nil {
		return err
	}

	if !found {
		return persistence.ErrLeadNotFound
	}

	if patch.Stage != nil {
		lead.Stage = *patch.Stage
	}

	lead.Tags = append(lead.Tags, patch.AddTags...)

	if patch.AppendNote != nil {
		if lead.Notes != "" {
			lead.Notes += "\n"
		}

		lead.Notes += *patch.AppendNote
	}

	lead.UpdatedAt = time.Now().UTC()

	return r.p.writeDoc(leadsDir, lead.ID, &lead)
}

type ServiceRepository struct {
	p *Persistence
}

func (r *ServiceRepository) Save(_ context.Context, service *models.Service) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now().UTC()
	}

	return r.p.writeDoc(servicesDir, service.ID, service)
}

func (r *ServiceRepository) ListActive(_ context.Context, ownerID string) ([]*models.Service, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	all, err := readAll[models.Service](r.p, servicesDir)
	if err != nil {
		return nil, err
	}

	var services []*models.Service

	for _, service := range all {
		if service.OwnerID == ownerID && service.IsActive {
			services = append(services, service)
		}
	}

	return services, nil
}

type AppointmentRepository struct {
	p *Persistence
}

func (r *AppointmentRepository) Create(_ context.Context, appointment *models.Appointment) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now().UTC()
	}

	return r.p.writeDoc(appointmentsDir, appointment.ID, appointment)
}

type OwnerSettingsRepository struct {
	p *Persistence
}

func (r *OwnerSettingsRepository) Save(_ context.Context, settings *models.OwnerSettings) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return r.p.writeDoc(settingsDir, settings.OwnerID, settings)
}

func (r *OwnerSettingsRepository) Get(_ context.Context, ownerID string) (*models.OwnerSettings, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var settings models.OwnerSettings

	found, err := r.p.readDoc(settingsDir, ownerID, &settings)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrSettingsNotFound
	}

	return &settings, nil
}
