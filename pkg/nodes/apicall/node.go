// Package apicall performs an HTTP request against an external API and feeds
// the response back into the execution state.
package apicall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/template"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20
)

type Handler struct {
	method  string
	url     string
	headers map[string]string
	body    string
	client  *http.Client
}

// Execute sends the configured request with placeholders resolved against the
// execution state. Unlike the webhook node, failures here fail the step: the
// caller wired the response into its flow and a broken call is actionable.
func (h *Handler) Execute(ctx context.Context, execution *models.Execution, logger *slog.Logger) (*protocol.Result, error) {
	url := template.Render(h.url, execution)

	var body io.Reader
	if h.body != "" {
		body = strings.NewReader(template.Render(h.body, execution))
	}

	req, err := http.NewRequestWithContext(ctx, h.method, url, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	for name, value := range h.headers {
		req.Header.Set(name, template.Render(value, execution))
	}

	if h.body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("Calling external API", "method", h.method, "url", url)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		parsed = string(raw)
	}

	return &protocol.Result{
		Data: map[string]any{
			"statusCode": resp.StatusCode,
			"response":   parsed,
		},
	}, nil
}

type HandlerFactory struct{}

func NewHandlerFactory() *HandlerFactory { return &HandlerFactory{} }

func (*HandlerFactory) ID() string   { return models.NodeTypeAPI }
func (*HandlerFactory) Name() string { return "API Call" }

func (*HandlerFactory) Create(config map[string]any) (protocol.NodeHandler, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, errors.New("api node requires 'url'")
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)

	headers := map[string]string{}
	if raw, ok := config["headers"].(map[string]any); ok {
		for name, value := range raw {
			if s, ok := value.(string); ok {
				headers[name] = s
			}
		}
	}

	body, _ := config["body"].(string)

	return &Handler{
		method:  method,
		url:     url,
		headers: headers,
		body:    body,
		client:  &http.Client{Timeout: defaultTimeout},
	}, nil
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"method":  map[string]any{"type": "string", "enum": []string{"GET", "POST", "PUT", "PATCH", "DELETE"}},
			"url":     map[string]any{"type": "string", "description": "Request URL, may contain {placeholders}."},
			"headers": map[string]any{"type": "object"},
			"body":    map[string]any{"type": "string", "description": "Request body, may contain {placeholders}."},
		},
		"required": []string{"url"},
	}
}
