// Package delay suspends a chain by scheduling the next activation instead
// of occupying a worker.
package delay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
)

type Handler struct {
	minutes float64
}

// Execute completes immediately and tells the coordinator when the next node
// may run. A blocking sleep would pin a worker for the whole delay, so the
// suspension lives in the dispatch layer.
func (h *Handler) Execute(_ context.Context, _ *models.Execution, logger *slog.Logger) (*protocol.Result, error) {
	resumeAt := time.Now().UTC().Add(time.Duration(h.minutes * float64(time.Minute)))

	logger.Debug("Delay scheduled", "minutes", h.minutes, "resume_at", resumeAt)

	return &protocol.Result{
		Data: map[string]any{
			"delayMinutes": h.minutes,
			"resumeAt":     resumeAt.Format(time.RFC3339),
		},
		ResumeAt: &resumeAt,
	}, nil
}

type HandlerFactory struct{}

func NewHandlerFactory() *HandlerFactory { return &HandlerFactory{} }

func (*HandlerFactory) ID() string   { return models.NodeTypeDelay }
func (*HandlerFactory) Name() string { return "Delay" }

func (f *HandlerFactory) Create(config map[string]any) (protocol.NodeHandler, error) {
	minutes, ok := models.ToFloat(config["delayMinutes"])
	if !ok || minutes < 0 {
		return nil, errors.New("delay node requires a non-negative 'delayMinutes'")
	}

	return &Handler{minutes: minutes}, nil
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"delayMinutes": map[string]any{
				"type":        "number",
				"minimum":     0,
				"description": "How long to wait before the next node runs.",
			},
		},
		"required": []string{"delayMinutes"},
	}
}
