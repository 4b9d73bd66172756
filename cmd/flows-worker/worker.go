package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/engine"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/eventbus"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/events"
)

// Worker consumes node activations from the event bus and drives the
// coordinator. It is the coordinator's only client for Advance.
type Worker struct {
	id          string
	logger      *slog.Logger
	coordinator *engine.Coordinator
	eventBus    eventbus.EventBus
}

func NewWorker(id string, coordinator *engine.Coordinator, eventBus eventbus.EventBus, logger *slog.Logger) *Worker {
	return &Worker{
		id:          id,
		logger:      logger.With("module", "flows-worker", "worker_id", id),
		coordinator: coordinator,
		eventBus:    eventBus,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker")

	w.eventBus.Handle(events.NodeActivationEvent, w.handleNodeActivation)

	err := w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *Worker) handleNodeActivation(ctx context.Context, event any) error {
	activation, ok := event.(*events.NodeActivation)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for NodeActivation")

		return nil
	}

	logger := w.logger.With(
		"execution_id", activation.ExecutionID,
		"node_id", activation.NodeID,
		"step", activation.Step,
	)
	logger.InfoContext(ctx, "Processing node activation")

	err := w.coordinator.Advance(ctx, activation.ExecutionID, activation.NodeID, activation.Step)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to advance execution", "error", err)

		return err
	}

	return nil
}
