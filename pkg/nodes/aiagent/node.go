// Package aiagent generates a reply for the triggering message with the
// tenant's configured AI provider.
package aiagent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/ai"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/template"
)

type Handler struct {
	systemPrompt string
	provider     ai.Provider
	settings     persistence.OwnerSettingsRepository
}

// Execute asks the provider for a completion of the triggering message. A
// tenant without an AI key gets a successful no-op, matching the other
// integration nodes: flows must not break because one owner skipped setup.
func (h *Handler) Execute(ctx context.Context, execution *models.Execution, logger *slog.Logger) (*protocol.Result, error) {
	noop := &protocol.Result{Data: map[string]any{"aiResponse": nil}}

	settings, err := h.settings.Get(ctx, execution.OwnerID)
	if err != nil {
		if errors.Is(err, persistence.ErrSettingsNotFound) {
			logger.Debug("AI node skipped, owner has no settings", "owner_id", execution.OwnerID)

			return noop, nil
		}

		return nil, err
	}

	if settings.AIAPIKey == "" {
		logger.Debug("AI node skipped, owner has no AI key", "owner_id", execution.OwnerID)

		return noop, nil
	}

	message, ok := execution.StateString("message")
	if !ok {
		logger.Debug("AI node skipped, no message in state", "execution_id", execution.ID)

		return noop, nil
	}

	prompt := template.Render(h.systemPrompt, execution)

	response, err := h.provider.Complete(ctx, settings.AIAPIKey, settings.AIModel, prompt, message)
	if err != nil {
		return nil, err
	}

	return &protocol.Result{Data: map[string]any{"aiResponse": response}}, nil
}

type HandlerFactory struct {
	provider ai.Provider
	settings persistence.OwnerSettingsRepository
}

func NewHandlerFactory(provider ai.Provider, settings persistence.OwnerSettingsRepository) *HandlerFactory {
	return &HandlerFactory{provider: provider, settings: settings}
}

func (*HandlerFactory) ID() string   { return models.NodeTypeAIAgent }
func (*HandlerFactory) Name() string { return "AI Agent" }

func (f *HandlerFactory) Create(config map[string]any) (protocol.NodeHandler, error) {
	prompt, _ := config["systemPrompt"].(string)
	if prompt == "" {
		return nil, errors.New("ai_agent node requires 'systemPrompt'")
	}

	return &Handler{systemPrompt: prompt, provider: f.provider, settings: f.settings}, nil
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"systemPrompt": map[string]any{"type": "string", "description": "Instructions framing every completion."},
		},
		"required": []string{"systemPrompt"},
	}
}
