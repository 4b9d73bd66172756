// Package message sends a templated text message through the tenant's
// messaging channel.
package message

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/messaging"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/template"
)

type Handler struct {
	text     string
	settings persistence.OwnerSettingsRepository
	channel  messaging.Channel
}

// Execute interpolates the template and hands the text to the messaging
// channel for the phone found in state. Send failures are logged and recorded
// in state but never fail the node: a broken channel must not stop the chain.
func (h *Handler) Execute(ctx context.Context, execution *models.Execution, logger *slog.Logger) (*protocol.Result, error) {
	text := template.Render(h.text, execution)

	sent := false

	to, ok := execution.StateString("phone")
	if !ok {
		logger.Warn("Message node has no recipient phone in state", "execution_id", execution.ID)
	} else {
		settings, err := h.settings.Get(ctx, execution.OwnerID)
		if err != nil {
			logger.Warn("Message send skipped, owner settings unavailable", "error", err)
		} else if err := h.channel.Send(ctx, settings, to, text); err != nil {
			logger.Warn("Message send failed", "to", to, "error", err)
		} else {
			sent = true
		}
	}

	return &protocol.Result{
		Data: map[string]any{
			"messageSent": sent,
			"message":     text,
		},
	}, nil
}

type HandlerFactory struct {
	settings persistence.OwnerSettingsRepository
	channel  messaging.Channel
}

func NewHandlerFactory(settings persistence.OwnerSettingsRepository, channel messaging.Channel) *HandlerFactory {
	return &HandlerFactory{settings: settings, channel: channel}
}

func (*HandlerFactory) ID() string   { return models.NodeTypeMessage }
func (*HandlerFactory) Name() string { return "Send Message" }

func (f *HandlerFactory) Create(config map[string]any) (protocol.NodeHandler, error) {
	text, _ := config["message"].(string)
	if text == "" {
		return nil, errors.New("message node requires 'message'")
	}

	return &Handler{text: text, settings: f.settings, channel: f.channel}, nil
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message text. {name} placeholders resolve against execution state then trigger data.",
				"examples":    []string{"Olá {name}, sua sessão está confirmada!"},
			},
		},
		"required": []string{"message"},
	}
}
