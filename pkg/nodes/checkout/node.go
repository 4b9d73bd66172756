// Package checkout builds a deterministic payment link for the owner's first
// active service.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
)

const defaultBaseURL = "https://acolheaqui.com.br"

type Handler struct {
	services persistence.ServiceRepository
	settings persistence.OwnerSettingsRepository
}

func (h *Handler) Execute(ctx context.Context, execution *models.Execution, logger *slog.Logger) (*protocol.Result, error) {
	services, err := h.services.ListActive(ctx, execution.OwnerID)
	if err != nil {
		return nil, err
	}

	if len(services) == 0 {
		logger.Debug("Checkout node skipped, owner has no active service", "owner_id", execution.OwnerID)

		return &protocol.Result{Data: map[string]any{"checkoutUrl": nil}}, nil
	}

	baseURL := defaultBaseURL

	settings, err := h.settings.Get(ctx, execution.OwnerID)
	if err == nil && settings.CheckoutBaseURL != "" {
		baseURL = settings.CheckoutBaseURL
	} else if err != nil && !errors.Is(err, persistence.ErrSettingsNotFound) {
		return nil, err
	}

	url := strings.TrimSuffix(baseURL, "/") + "/checkout/" + services[0].ID

	return &protocol.Result{
		Data: map[string]any{
			"checkoutUrl": url,
			"serviceId":   services[0].ID,
		},
	}, nil
}

type HandlerFactory struct {
	services persistence.ServiceRepository
	settings persistence.OwnerSettingsRepository
}

func NewHandlerFactory(services persistence.ServiceRepository, settings persistence.OwnerSettingsRepository) *HandlerFactory {
	return &HandlerFactory{services: services, settings: settings}
}

func (*HandlerFactory) ID() string   { return models.NodeTypeCheckout }
func (*HandlerFactory) Name() string { return "Checkout Link" }

func (f *HandlerFactory) Create(_ map[string]any) (protocol.NodeHandler, error) {
	return &Handler{services: f.services, settings: f.settings}, nil
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
