// Package web provides the HTTP surface of the flow engine: trigger entry
// points, flow management and the execution read side.
package web

import "github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"

// MessageTriggerRequest is an inbound contact message (a keyword trigger
// candidate).
type MessageTriggerRequest struct {
	OwnerID string `json:"owner_id" validate:"required"`
	Phone   string `json:"phone"    validate:"required"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"  validate:"required"`
}

// EventTriggerRequest is a named business event, e.g. "appointment_created"
// or "payment_approved".
type EventTriggerRequest struct {
	OwnerID string         `json:"owner_id" validate:"required"`
	Event   string         `json:"event"    validate:"required"`
	Data    map[string]any `json:"data,omitempty"`
}

// TriggerResponse reports the executions a trigger started.
type TriggerResponse struct {
	Started      int      `json:"started"`
	ExecutionIDs []string `json:"execution_ids"`
}

// CreateFlowRequest is the request body for creating a new flow.
type CreateFlowRequest struct {
	Name          string             `json:"name"           validate:"required,min=3"`
	OwnerID       string             `json:"owner_id"       validate:"required"`
	TriggerType   models.TriggerType `json:"trigger_type"   validate:"required,oneof=keyword event webhook"`
	TriggerConfig map[string]any     `json:"trigger_config"`
	Nodes         []*models.Node     `json:"nodes"          validate:"required,min=1"`
	Edges         []*models.Edge     `json:"edges"`
}

// SetActiveRequest toggles flow activation.
type SetActiveRequest struct {
	Active bool `json:"active"`
}
