package web

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/engine"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/registry"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/services"
)

type APIHandlers struct {
	coordinator      *engine.Coordinator
	flowService      *services.Flow
	executionService *services.Execution
	validator        *validator.Validate
	registry         *registry.Registry
}

func NewAPIHandlers(
	coordinator *engine.Coordinator,
	flowService *services.Flow,
	executionService *services.Execution,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		coordinator:      coordinator,
		flowService:      flowService,
		executionService: executionService,
		validator:        validator,
		registry:         registry,
	}
}

// TriggerMessage receives an inbound contact message and runs keyword
// matching for the owner's flows.
func (h *APIHandlers) TriggerMessage(c fiber.Ctx) error {
	var req MessageTriggerRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	payload := map[string]any{
		"phone":   req.Phone,
		"message": req.Message,
	}
	if req.Name != "" {
		payload["name"] = req.Name
	}

	executions, err := h.coordinator.Trigger(c.Context(), req.OwnerID, models.TriggerTypeKeyword, payload)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(triggerResponse(executions))
}

// TriggerEvent receives a named business event.
func (h *APIHandlers) TriggerEvent(c fiber.Ctx) error {
	var req EventTriggerRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	payload := map[string]any{"event": req.Event}
	for k, v := range req.Data {
		if k != "event" {
			payload[k] = v
		}
	}

	executions, err := h.coordinator.Trigger(c.Context(), req.OwnerID, models.TriggerTypeEvent, payload)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(triggerResponse(executions))
}

// TriggerWebhook receives an arbitrary payload on the owner's webhook URL.
// The URL is the selector, so every active webhook flow of the owner matches.
func (h *APIHandlers) TriggerWebhook(c fiber.Ctx) error {
	ownerID := c.Params("ownerId")
	if ownerID == "" {
		return badRequest(c, "Missing owner id")
	}

	payload := map[string]any{}
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&payload); err != nil {
			return badRequest(c, "Invalid JSON body: "+err.Error())
		}
	}

	executions, err := h.coordinator.Trigger(c.Context(), ownerID, models.TriggerTypeWebhook, payload)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(triggerResponse(executions))
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var req CreateFlowRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	flow, err := h.flowService.Create(c.Context(), &models.Flow{
		Name:          req.Name,
		OwnerID:       req.OwnerID,
		TriggerType:   req.TriggerType,
		TriggerConfig: req.TriggerConfig,
		Nodes:         req.Nodes,
		Edges:         req.Edges,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(flow)
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	ownerID := c.Query("owner_id")

	flows, err := h.flowService.List(c.Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"flows": flows, "count": len(flows)})
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	flow, err := h.flowService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) SetFlowActive(c fiber.Ctx) error {
	var req SetActiveRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	flow, err := h.flowService.SetActive(c.Context(), c.Params("id"), req.Active)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.executionService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetFlowExecutions(c fiber.Ctx) error {
	executions, err := h.executionService.ListByFlow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions, "count": len(executions)})
}

func (h *APIHandlers) GetExecutionLog(c fiber.Ctx) error {
	entries, err := h.executionService.Log(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"entries": entries, "count": len(entries)})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.flowService.HealthCheck(c.Context())
	registryDetails, registryHealthy := h.registry.HealthCheck()

	status := fiber.StatusOK
	if !healthy || !registryHealthy {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"persistence": message,
		"registry":    registryDetails,
	})
}

func triggerResponse(executions []*models.Execution) TriggerResponse {
	ids := make([]string, 0, len(executions))
	for _, execution := range executions {
		ids = append(ids, execution.ID)
	}

	return TriggerResponse{Started: len(executions), ExecutionIDs: ids}
}
