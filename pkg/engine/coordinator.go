// Package engine implements the execution coordinator: it creates executions
// for matched flows and drives them node by node through asynchronous
// continuation dispatch. The persisted execution row is the only state
// carried between steps, so each activation is an independent, retryable
// unit of work.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/eventbus"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/events"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/otelhelper"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/registry"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/trigger"
)

// DelayScheduler postpones a node activation until a future instant. The
// delay node suspends through it instead of blocking a worker.
type DelayScheduler interface {
	Schedule(ctx context.Context, activation events.NodeActivation, at time.Time) error
}

type Coordinator struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   eventbus.EventPublisher
	scheduler   DelayScheduler
	matcher     *trigger.Matcher
	tracer      trace.Tracer
	logger      *slog.Logger
}

func NewCoordinator(
	p persistence.Persistence,
	reg *registry.Registry,
	publisher eventbus.EventPublisher,
	scheduler DelayScheduler,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		persistence: p,
		registry:    reg,
		publisher:   publisher,
		scheduler:   scheduler,
		matcher:     trigger.NewMatcher(p.FlowRepository(), logger),
		tracer:      tracer,
		logger:      logger.With("module", "coordinator"),
	}
}

// Trigger matches the inbound event against the owner's active flows and
// starts one execution per match. A flow that fails to start does not stop
// the others.
func (c *Coordinator) Trigger(ctx context.Context, ownerID string, triggerType models.TriggerType, payload map[string]any) ([]*models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "coordinator.trigger",
		attribute.String(otelhelper.OwnerIDKey, ownerID),
		attribute.String(otelhelper.TriggerTypeKey, string(triggerType)),
	)
	defer span.End()

	flows, err := c.matcher.Match(ctx, ownerID, triggerType, payload)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	executions := make([]*models.Execution, 0, len(flows))

	for _, flow := range flows {
		execution, err := c.Start(ctx, flow, payload)
		if err != nil {
			c.logger.Error("Failed to start execution", "flow_id", flow.ID, "error", err)

			continue
		}

		executions = append(executions, execution)
	}

	return executions, nil
}

// Start persists a new running execution for the flow and dispatches the
// activation of the first node after the trigger. A trigger node with no
// outgoing edge completes the execution immediately, with no steps.
func (c *Coordinator) Start(ctx context.Context, flow *models.Flow, payload map[string]any) (*models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "coordinator.start",
		attribute.String(otelhelper.FlowIDKey, flow.ID),
		attribute.String(otelhelper.OwnerIDKey, flow.OwnerID),
	)
	defer span.End()

	triggerNode := flow.TriggerNode()
	if triggerNode == nil {
		err := fmt.Errorf("flow %s has no trigger node", flow.ID)
		otelhelper.SetError(span, err)

		return nil, err
	}

	now := time.Now().UTC()
	execution := &models.Execution{
		ID:          uuid.New().String(),
		FlowID:      flow.ID,
		OwnerID:     flow.OwnerID,
		Status:      models.ExecutionStatusRunning,
		TriggerData: payload,
		State:       map[string]any{models.StateTriggerDataKey: payload},
		StartedAt:   now,
		UpdatedAt:   now,
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, execution.ID))

	edge := flow.NextEdge(triggerNode.ID, "")
	if edge == nil {
		execution.Status = models.ExecutionStatusCompleted
		execution.CompletedAt = &now

		if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
			return nil, fmt.Errorf("saving execution: %w", err)
		}

		c.publishStarted(ctx, flow, execution)
		c.publishCompleted(ctx, execution, 0)

		return execution, nil
	}

	execution.CurrentNodeID = &edge.TargetNodeID

	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		return nil, fmt.Errorf("saving execution: %w", err)
	}

	c.publishStarted(ctx, flow, execution)

	if err := c.dispatch(ctx, execution, edge.TargetNodeID); err != nil {
		return nil, err
	}

	c.logger.Info("Execution started",
		"execution_id", execution.ID, "flow_id", flow.ID, "first_node", edge.TargetNodeID)

	return execution, nil
}

// Advance applies one node step. It is the continuation entry point and must
// stay idempotent: a stale or duplicate activation (step behind the stored
// counter, execution no longer running) is dropped without effect.
func (c *Coordinator) Advance(ctx context.Context, executionID, nodeID string, step int) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "coordinator.advance",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.NodeIDKey, nodeID),
		attribute.Int(otelhelper.StepKey, step),
	)
	defer span.End()

	execution, err := c.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("loading execution %s: %w", executionID, err)
	}

	if execution.Status != models.ExecutionStatusRunning {
		c.logger.Debug("Dropping activation for finished execution",
			"execution_id", executionID, "status", execution.Status)

		return nil
	}

	if step != execution.StepCount {
		c.logger.Debug("Dropping stale activation",
			"execution_id", executionID, "activation_step", step, "current_step", execution.StepCount)

		return nil
	}

	flow, err := c.persistence.FlowRepository().GetByID(ctx, execution.FlowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("loading flow %s: %w", execution.FlowID, err)
	}

	node := flow.NodeByID(nodeID)
	if node == nil {
		err := fmt.Errorf("flow %s has no node %s", flow.ID, nodeID)
		otelhelper.SetError(span, err)
		c.failExecution(ctx, execution, nodeID, err)

		return err
	}

	span.SetAttributes(attribute.String(otelhelper.NodeTypeKey, node.Type))

	result, runErr := c.runNode(ctx, flow, node, execution)

	entry := c.appendLog(ctx, execution, node, result, runErr)
	c.publishCompletion(ctx, execution, entry)

	if runErr != nil && node.FailurePolicyOrDefault() == models.FailurePolicyHalt {
		c.failExecution(ctx, execution, nodeID, runErr)

		return nil
	}

	selector := ""

	if runErr == nil {
		execution.MergeState(result.Data)
		selector = result.Selector
	}

	execution.StepCount++
	execution.ResumeAt = nil
	execution.UpdatedAt = time.Now().UTC()

	edge := flow.NextEdge(nodeID, selector)
	if edge == nil {
		return c.complete(ctx, execution)
	}

	execution.CurrentNodeID = &edge.TargetNodeID

	// A persisted resume time marks the row as suspended rather than stalled,
	// so the watchdog does not re-drive it before the delay elapses.
	suspend := runErr == nil && result.ResumeAt != nil
	if suspend {
		execution.ResumeAt = result.ResumeAt
	}

	// The cursor move and state merge commit before the next activation goes
	// out, so a node never observes a half-applied predecessor.
	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("saving execution %s: %w", executionID, err)
	}

	if suspend {
		return c.schedule(ctx, execution, edge.TargetNodeID, *result.ResumeAt)
	}

	return c.dispatch(ctx, execution, edge.TargetNodeID)
}

// runNode resolves and executes the node's handler. An unregistered node type
// is the deliberate "do nothing, don't break the chain" empty success.
func (c *Coordinator) runNode(ctx context.Context, flow *models.Flow, node *models.Node, execution *models.Execution) (*protocol.Result, error) {
	handler, err := c.registry.Create(node.Type, node.Data)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownNodeType) {
			c.logger.Warn("Skipping unknown node type",
				"flow_id", flow.ID, "node_id", node.ID, "node_type", node.Type)

			return &protocol.Result{Data: map[string]any{}}, nil
		}

		return nil, fmt.Errorf("node %s: %w", node.ID, err)
	}

	logger := c.logger.With(
		"execution_id", execution.ID, "node_id", node.ID, "node_type", node.Type)

	result, err := handler.Execute(ctx, execution, logger)
	if err != nil {
		return nil, err
	}

	if result == nil {
		result = &protocol.Result{}
	}

	if result.Data == nil {
		result.Data = map[string]any{}
	}

	return result, nil
}

func (c *Coordinator) appendLog(ctx context.Context, execution *models.Execution, node *models.Node, result *protocol.Result, runErr error) *models.ExecutionLogEntry {
	entry := &models.ExecutionLogEntry{
		ID:          uuid.New().String(),
		ExecutionID: execution.ID,
		NodeID:      node.ID,
		NodeType:    node.Type,
		InputData:   snapshot(execution.State),
		Status:      models.LogStatusSuccess,
		CreatedAt:   time.Now().UTC(),
	}

	if runErr != nil {
		entry.Status = models.LogStatusFailed
		entry.ErrorMessage = runErr.Error()
	} else {
		entry.OutputData = result.Data
	}

	if err := c.persistence.ExecutionLogRepository().Append(ctx, entry); err != nil {
		c.logger.Error("Failed to append execution log entry",
			"execution_id", execution.ID, "node_id", node.ID, "error", err)
	}

	return entry
}

func (c *Coordinator) complete(ctx context.Context, execution *models.Execution) error {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.CurrentNodeID = nil
	execution.CompletedAt = &now
	execution.UpdatedAt = now

	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		return fmt.Errorf("completing execution %s: %w", execution.ID, err)
	}

	c.publishCompleted(ctx, execution, execution.StepCount)

	c.logger.Info("Execution completed",
		"execution_id", execution.ID, "flow_id", execution.FlowID, "steps", execution.StepCount)

	return nil
}

func (c *Coordinator) failExecution(ctx context.Context, execution *models.Execution, nodeID string, cause error) {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.CurrentNodeID = nil
	execution.CompletedAt = &now
	execution.UpdatedAt = now

	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		c.logger.Error("Failed to mark execution failed",
			"execution_id", execution.ID, "error", err)
	}

	event := events.ExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, execution.FlowID),
		ExecutionID: execution.ID,
		NodeID:      nodeID,
		Error:       cause.Error(),
	}
	event.OwnerID = execution.OwnerID

	if err := c.publisher.Publish(ctx, execution.ID, event); err != nil {
		c.logger.Error("Failed to publish execution failed event",
			"execution_id", execution.ID, "error", err)
	}

	c.logger.Warn("Execution failed",
		"execution_id", execution.ID, "node_id", nodeID, "error", cause)
}

func (c *Coordinator) dispatch(ctx context.Context, execution *models.Execution, nodeID string) error {
	activation := c.activation(execution, nodeID)

	if err := c.publisher.Publish(ctx, execution.ID, activation); err != nil {
		return fmt.Errorf("dispatching activation for execution %s: %w", execution.ID, err)
	}

	return nil
}

func (c *Coordinator) schedule(ctx context.Context, execution *models.Execution, nodeID string, at time.Time) error {
	activation := c.activation(execution, nodeID)

	if err := c.scheduler.Schedule(ctx, activation, at); err != nil {
		return fmt.Errorf("scheduling activation for execution %s: %w", execution.ID, err)
	}

	c.logger.Info("Execution suspended until resume",
		"execution_id", execution.ID, "node_id", nodeID, "resume_at", at)

	return nil
}

func (c *Coordinator) activation(execution *models.Execution, nodeID string) events.NodeActivation {
	activation := events.NodeActivation{
		BaseEvent:   events.NewBaseEvent(events.NodeActivationEvent, execution.FlowID),
		ExecutionID: execution.ID,
		NodeID:      nodeID,
		Step:        execution.StepCount,
	}
	activation.OwnerID = execution.OwnerID

	return activation
}

func (c *Coordinator) publishStarted(ctx context.Context, flow *models.Flow, execution *models.Execution) {
	event := events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, flow.ID),
		ExecutionID: execution.ID,
		TriggerType: flow.TriggerType,
		TriggerData: execution.TriggerData,
	}
	event.OwnerID = execution.OwnerID

	if err := c.publisher.Publish(ctx, execution.ID, event); err != nil {
		c.logger.Error("Failed to publish execution started event",
			"execution_id", execution.ID, "error", err)
	}
}

func (c *Coordinator) publishCompleted(ctx context.Context, execution *models.Execution, steps int) {
	event := events.ExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, execution.FlowID),
		ExecutionID:   execution.ID,
		NodesExecuted: steps,
		DurationMs:    time.Since(execution.StartedAt).Milliseconds(),
	}
	event.OwnerID = execution.OwnerID

	if err := c.publisher.Publish(ctx, execution.ID, event); err != nil {
		c.logger.Error("Failed to publish execution completed event",
			"execution_id", execution.ID, "error", err)
	}
}

func (c *Coordinator) publishCompletion(ctx context.Context, execution *models.Execution, entry *models.ExecutionLogEntry) {
	event := events.NodeCompletion{
		BaseEvent:    events.NewBaseEvent(events.NodeCompletionEvent, execution.FlowID),
		ExecutionID:  execution.ID,
		NodeID:       entry.NodeID,
		NodeType:     entry.NodeType,
		Status:       entry.Status,
		OutputData:   entry.OutputData,
		ErrorMessage: entry.ErrorMessage,
	}
	event.OwnerID = execution.OwnerID

	if err := c.publisher.Publish(ctx, execution.ID, event); err != nil {
		c.logger.Error("Failed to publish node completion event",
			"execution_id", execution.ID, "error", err)
	}
}

func snapshot(state map[string]any) map[string]any {
	copied := make(map[string]any, len(state))
	for k, v := range state {
		copied[k] = v
	}

	return copied
}
