// Package calendar books an appointment on the owner's first active service
// for the triggering contact.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/template"
)

type Handler struct {
	date         string
	timeOfDay    string
	services     persistence.ServiceRepository
	appointments persistence.AppointmentRepository
}

// Execute is a no-op success when the owner has no active service or the
// trigger carries no identifying phone.
func (h *Handler) Execute(ctx context.Context, execution *models.Execution, logger *slog.Logger) (*protocol.Result, error) {
	noop := &protocol.Result{Data: map[string]any{"appointmentCreated": false}}

	phone, ok := execution.StateString("phone")
	if !ok {
		logger.Debug("Calendar node skipped, no phone in state", "execution_id", execution.ID)

		return noop, nil
	}

	services, err := h.services.ListActive(ctx, execution.OwnerID)
	if err != nil {
		return nil, err
	}

	if len(services) == 0 {
		logger.Debug("Calendar node skipped, owner has no active service", "owner_id", execution.OwnerID)

		return noop, nil
	}

	scheduledFor, err := h.resolveSchedule(execution)
	if err != nil {
		return nil, err
	}

	name, _ := execution.StateString("name")

	appointment := &models.Appointment{
		ID:           uuid.New().String(),
		OwnerID:      execution.OwnerID,
		ServiceID:    services[0].ID,
		ContactName:  name,
		ContactPhone: phone,
		ScheduledFor: scheduledFor,
		Status:       models.AppointmentStatusPending,
	}

	err = h.appointments.Create(ctx, appointment)
	if err != nil {
		return nil, err
	}

	return &protocol.Result{
		Data: map[string]any{
			"appointmentCreated": true,
			"appointmentId":      appointment.ID,
			"serviceId":          services[0].ID,
		},
	}, nil
}

func (h *Handler) resolveSchedule(execution *models.Execution) (time.Time, error) {
	date := template.Render(h.date, execution)
	timeOfDay := template.Render(h.timeOfDay, execution)

	if timeOfDay == "" {
		timeOfDay = "09:00"
	}

	scheduledFor, err := time.Parse("2006-01-02 15:04", date+" "+timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar node has an invalid schedule %q %q: %w", date, timeOfDay, err)
	}

	return scheduledFor.UTC(), nil
}

type HandlerFactory struct {
	services     persistence.ServiceRepository
	appointments persistence.AppointmentRepository
}

func NewHandlerFactory(services persistence.ServiceRepository, appointments persistence.AppointmentRepository) *HandlerFactory {
	return &HandlerFactory{services: services, appointments: appointments}
}

func (*HandlerFactory) ID() string   { return models.NodeTypeCalendar }
func (*HandlerFactory) Name() string { return "Book Appointment" }

func (f *HandlerFactory) Create(config map[string]any) (protocol.NodeHandler, error) {
	date, _ := config["date"].(string)
	if date == "" {
		return nil, fmt.Errorf("calendar node requires 'date'")
	}

	timeOfDay, _ := config["time"].(string)

	return &Handler{
		date:         date,
		timeOfDay:    timeOfDay,
		services:     f.services,
		appointments: f.appointments,
	}, nil
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date": map[string]any{
				"type":        "string",
				"description": "Appointment date (2006-01-02). Supports {name} placeholders.",
			},
			"time": map[string]any{
				"type":        "string",
				"description": "Appointment time (15:04), defaults to 09:00.",
			},
		},
		"required": []string{"date"},
	}
}
