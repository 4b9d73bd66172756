// Package crm applies stage, tag and note updates to the lead matching the
// triggering contact.
package crm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/template"
)

type Handler struct {
	stage string
	tag   string
	note  string
	leads persistence.LeadRepository
}

// Execute looks the lead up by the phone in state and applies the configured
// patch. No matching lead is a successful no-op, not a failure: flows run for
// contacts that may not be leads yet.
func (h *Handler) Execute(ctx context.Context, execution *models.Execution, logger *slog.Logger) (*protocol.Result, error) {
	noop := &protocol.Result{Data: map[string]any{"crmUpdated": false}}

	phone, ok := execution.StateString("phone")
	if !ok {
		logger.Debug("CRM node skipped, no phone in state", "execution_id", execution.ID)

		return noop, nil
	}

	lead, err := h.leads.FindByPhone(ctx, execution.OwnerID, phone)
	if err != nil {
		if errors.Is(err, persistence.ErrLeadNotFound) {
			logger.Debug("CRM node skipped, no lead for phone", "phone", phone)

			return noop, nil
		}

		return nil, err
	}

	patch := models.LeadPatch{}

	if h.stage != "" {
		stage := template.Render(h.stage, execution)
		patch.Stage = &stage
	}

	if h.tag != "" {
		patch.AddTags = []string{template.Render(h.tag, execution)}
	}

	if h.note != "" {
		note := template.Render(h.note, execution)
		patch.AppendNote = &note
	}

	err = h.leads.Update(ctx, lead.ID, patch)
	if err != nil {
		return nil, err
	}

	return &protocol.Result{
		Data: map[string]any{
			"crmUpdated": true,
			"leadId":     lead.ID,
		},
	}, nil
}

type HandlerFactory struct {
	leads persistence.LeadRepository
}

func NewHandlerFactory(leads persistence.LeadRepository) *HandlerFactory {
	return &HandlerFactory{leads: leads}
}

func (*HandlerFactory) ID() string   { return models.NodeTypeCRM }
func (*HandlerFactory) Name() string { return "Update Lead" }

func (f *HandlerFactory) Create(config map[string]any) (protocol.NodeHandler, error) {
	stage, _ := config["stage"].(string)
	tag, _ := config["tag"].(string)
	note, _ := config["note"].(string)

	if stage == "" && tag == "" && note == "" {
		return nil, errors.New("crm node requires at least one of 'stage', 'tag' or 'note'")
	}

	return &Handler{stage: stage, tag: tag, note: note, leads: f.leads}, nil
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"stage": map[string]any{"type": "string", "description": "New pipeline stage."},
			"tag":   map[string]any{"type": "string", "description": "Tag appended to the lead."},
			"note":  map[string]any{"type": "string", "description": "Note appended to the lead."},
		},
	}
}
