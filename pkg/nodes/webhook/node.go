// Package webhook notifies an external URL about the execution's progress.
// Delivery is best-effort: a failed notification never breaks the flow.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/template"
)

const defaultTimeout = 10 * time.Second

type payload struct {
	ExecutionID string         `json:"executionId"`
	FlowID      string         `json:"flowId"`
	NodeID      string         `json:"nodeId"`
	State       map[string]any `json:"state"`
	Timestamp   time.Time      `json:"timestamp"`
}

type Handler struct {
	url    string
	client *http.Client
}

func (h *Handler) Execute(ctx context.Context, execution *models.Execution, logger *slog.Logger) (*protocol.Result, error) {
	url := template.Render(h.url, execution)

	nodeID := ""
	if execution.CurrentNodeID != nil {
		nodeID = *execution.CurrentNodeID
	}

	body, err := json.Marshal(payload{
		ExecutionID: execution.ID,
		FlowID:      execution.FlowID,
		NodeID:      nodeID,
		State:       execution.State,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	sent := true

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Warn("Webhook notification skipped, bad URL", "url", url, "error", err)

		sent = false
	} else {
		req.Header.Set("Content-Type", "application/json")

		resp, err := h.client.Do(req)
		if err != nil {
			logger.Warn("Webhook notification failed", "url", url, "error", err)

			sent = false
		} else {
			resp.Body.Close()

			if resp.StatusCode >= http.StatusBadRequest {
				logger.Warn("Webhook notification rejected", "url", url, "status", resp.StatusCode)

				sent = false
			}
		}
	}

	return &protocol.Result{Data: map[string]any{"webhookSent": sent}}, nil
}

type HandlerFactory struct{}

func NewHandlerFactory() *HandlerFactory { return &HandlerFactory{} }

func (*HandlerFactory) ID() string   { return models.NodeTypeWebhook }
func (*HandlerFactory) Name() string { return "Webhook Notify" }

func (*HandlerFactory) Create(config map[string]any) (protocol.NodeHandler, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, errors.New("webhook node requires 'url'")
	}

	return &Handler{url: url, client: &http.Client{Timeout: defaultTimeout}}, nil
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "Destination URL, may contain {placeholders}."},
		},
		"required": []string{"url"},
	}
}
