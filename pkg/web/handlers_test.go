package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/engine"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/eventbus"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/events"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/log"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/condition"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/delay"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence/file"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/registry"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/services"
)

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, string, eventbus.Event) error { return nil }

type discardScheduler struct{}

func (discardScheduler) Schedule(context.Context, events.NodeActivation, time.Time) error {
	return nil
}

type apiHarness struct {
	app         *fiber.App
	persistence *file.Persistence
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	logger := log.WithModule("test")
	persistence := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.Register(condition.NewHandlerFactory())
	reg.Register(delay.NewHandlerFactory())

	coordinator := engine.NewCoordinator(
		persistence,
		reg,
		discardPublisher{},
		discardScheduler{},
		noop.NewTracerProvider().Tracer("test"),
		logger,
	)

	validate := validator.New(validator.WithRequiredStructEnabled())
	flowService := services.NewFlow(persistence, reg, validate)
	executionService := services.NewExecution(persistence)
	handlers := NewAPIHandlers(coordinator, flowService, executionService, validate, reg)

	app := fiber.New()

	triggers := app.Group("/triggers")
	triggers.Post("/message", handlers.TriggerMessage)
	triggers.Post("/event", handlers.TriggerEvent)
	triggers.Post("/webhook/:ownerId", handlers.TriggerWebhook)

	flows := app.Group("/flows")
	flows.Get("/", handlers.GetFlows)
	flows.Post("/", handlers.CreateFlow)
	flows.Get("/:id", handlers.GetFlow)
	flows.Patch("/:id/active", handlers.SetFlowActive)
	flows.Get("/:id/executions", handlers.GetFlowExecutions)

	executions := app.Group("/executions")
	executions.Get("/:id", handlers.GetExecution)
	executions.Get("/:id/log", handlers.GetExecutionLog)

	app.Get("/health", handlers.HealthCheck)

	return &apiHarness{app: app, persistence: persistence}
}

func (h *apiHarness) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (h *apiHarness) saveActiveKeywordFlow(t *testing.T, ownerID string) *models.Flow {
	t.Helper()

	flow := &models.Flow{
		ID:          "flow-boas-vindas",
		OwnerID:     ownerID,
		Name:        "Boas-vindas",
		IsActive:    true,
		TriggerType: models.TriggerTypeKeyword,
		TriggerConfig: map[string]any{
			"keywords": []any{"terapia"},
		},
		Nodes: []*models.Node{
			{ID: "trigger-1", Type: models.NodeTypeTrigger},
			{ID: "n-wait", Type: models.NodeTypeDelay, Data: map[string]any{"delayMinutes": 10}},
		},
		Edges: []*models.Edge{
			{ID: "e-1", SourceNodeID: "trigger-1", TargetNodeID: "n-wait"},
		},
	}
	require.NoError(t, h.persistence.FlowRepository().Save(t.Context(), flow))

	return flow
}

func TestTriggerMessage(t *testing.T) {
	h := newAPIHarness(t)
	h.saveActiveKeywordFlow(t, "owner-1")

	resp := h.request(t, fiber.MethodPost, "/triggers/message", map[string]any{
		"owner_id": "owner-1",
		"phone":    "+5511999990000",
		"name":     "Maria",
		"message":  "quero começar terapia",
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var body TriggerResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.Started)
	require.Len(t, body.ExecutionIDs, 1)

	execution, err := h.persistence.ExecutionRepository().GetByID(t.Context(), body.ExecutionIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "flow-boas-vindas", execution.FlowID)
	assert.Equal(t, "quero começar terapia", execution.TriggerData["message"])
}

func TestTriggerMessage_NoMatchingFlow(t *testing.T) {
	h := newAPIHarness(t)
	h.saveActiveKeywordFlow(t, "owner-1")

	resp := h.request(t, fiber.MethodPost, "/triggers/message", map[string]any{
		"owner_id": "owner-1",
		"phone":    "+5511999990000",
		"message":  "bom dia",
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var body TriggerResponse
	decodeBody(t, resp, &body)
	assert.Zero(t, body.Started)
	assert.Empty(t, body.ExecutionIDs)
}

func TestTriggerMessage_MissingFields(t *testing.T) {
	h := newAPIHarness(t)

	resp := h.request(t, fiber.MethodPost, "/triggers/message", map[string]any{
		"owner_id": "owner-1",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTriggerEvent(t *testing.T) {
	h := newAPIHarness(t)

	flow := h.saveActiveKeywordFlow(t, "owner-1")
	flow.ID = "flow-pagamento"
	flow.TriggerType = models.TriggerTypeEvent
	flow.TriggerConfig = map[string]any{"event": "payment_approved"}
	require.NoError(t, h.persistence.FlowRepository().Save(t.Context(), flow))

	resp := h.request(t, fiber.MethodPost, "/triggers/event", map[string]any{
		"owner_id": "owner-1",
		"event":    "payment_approved",
		"data":     map[string]any{"amount_cents": 15000},
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var body TriggerResponse
	decodeBody(t, resp, &body)
	require.Equal(t, 1, body.Started)

	execution, err := h.persistence.ExecutionRepository().GetByID(t.Context(), body.ExecutionIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "payment_approved", execution.TriggerData["event"])
	assert.EqualValues(t, 15000, execution.TriggerData["amount_cents"])
}

func TestTriggerWebhook(t *testing.T) {
	h := newAPIHarness(t)

	flow := h.saveActiveKeywordFlow(t, "owner-1")
	flow.ID = "flow-webhook"
	flow.TriggerType = models.TriggerTypeWebhook
	flow.TriggerConfig = nil
	require.NoError(t, h.persistence.FlowRepository().Save(t.Context(), flow))

	resp := h.request(t, fiber.MethodPost, "/triggers/webhook/owner-1", map[string]any{
		"source": "site",
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var body TriggerResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.Started)
}

func TestCreateFlow(t *testing.T) {
	h := newAPIHarness(t)

	resp := h.request(t, fiber.MethodPost, "/flows/", CreateFlowRequest{
		Name:        "Novo fluxo",
		OwnerID:     "owner-1",
		TriggerType: models.TriggerTypeKeyword,
		TriggerConfig: map[string]any{
			"keywords": []any{"agenda"},
		},
		Nodes: []*models.Node{
			{ID: "trigger-1", Type: models.NodeTypeTrigger},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created models.Flow
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsActive)
}

func TestCreateFlow_InvalidGraph(t *testing.T) {
	h := newAPIHarness(t)

	resp := h.request(t, fiber.MethodPost, "/flows/", CreateFlowRequest{
		Name:        "Fluxo quebrado",
		OwnerID:     "owner-1",
		TriggerType: models.TriggerTypeKeyword,
		Nodes: []*models.Node{
			{ID: "trigger-1", Type: models.NodeTypeTrigger},
		},
		Edges: []*models.Edge{
			{ID: "e-1", SourceNodeID: "trigger-1", TargetNodeID: "ghost"},
		},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetFlows(t *testing.T) {
	h := newAPIHarness(t)
	h.saveActiveKeywordFlow(t, "owner-1")

	resp := h.request(t, fiber.MethodGet, "/flows/?owner_id=owner-1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Count int `json:"count"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.Count)
}

func TestGetFlows_MissingOwner(t *testing.T) {
	h := newAPIHarness(t)

	resp := h.request(t, fiber.MethodGet, "/flows/", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetFlow_NotFound(t *testing.T) {
	h := newAPIHarness(t)

	resp := h.request(t, fiber.MethodGet, "/flows/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSetFlowActive(t *testing.T) {
	h := newAPIHarness(t)

	flow := h.saveActiveKeywordFlow(t, "owner-1")
	flow.IsActive = false
	require.NoError(t, h.persistence.FlowRepository().Save(t.Context(), flow))

	resp := h.request(t, fiber.MethodPatch, "/flows/"+flow.ID+"/active", SetActiveRequest{Active: true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.Flow
	decodeBody(t, resp, &updated)
	assert.True(t, updated.IsActive)
}

func TestGetExecutionAndLog(t *testing.T) {
	h := newAPIHarness(t)
	h.saveActiveKeywordFlow(t, "owner-1")

	resp := h.request(t, fiber.MethodPost, "/triggers/message", map[string]any{
		"owner_id": "owner-1",
		"phone":    "+5511999990000",
		"message":  "terapia",
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var trigger TriggerResponse
	decodeBody(t, resp, &trigger)
	require.Len(t, trigger.ExecutionIDs, 1)
	executionID := trigger.ExecutionIDs[0]

	resp = h.request(t, fiber.MethodGet, "/executions/"+executionID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var execution models.Execution
	decodeBody(t, resp, &execution)
	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)

	resp = h.request(t, fiber.MethodGet, "/executions/"+executionID+"/log", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var logBody struct {
		Count int `json:"count"`
	}
	decodeBody(t, resp, &logBody)
	assert.Zero(t, logBody.Count, "no node has run yet")
}

func TestGetExecution_NotFound(t *testing.T) {
	h := newAPIHarness(t)

	resp := h.request(t, fiber.MethodGet, "/executions/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	h := newAPIHarness(t)

	resp := h.request(t, fiber.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
