package models

import "time"

// Service is a bookable offering of a tenant (a session type with a price and
// duration). The calendar and checkout nodes use the owner's first active one.
type Service struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Name            string    `json:"name"`
	PriceCents      int64     `json:"price_cents"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// AppointmentStatusPending is the default status for engine-created bookings.
const AppointmentStatusPending = "pending"

// Appointment is a booking created by the calendar node.
type Appointment struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	ServiceID    string    `json:"service_id"`
	ContactName  string    `json:"contact_name,omitempty"`
	ContactPhone string    `json:"contact_phone"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
