package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/eventbus"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/events"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
)

const defaultStallThreshold = 10 * time.Minute

// Watchdog re-publishes the current activation of any running execution whose
// cursor has not moved within the stall threshold. A lost continuation
// dispatch is the target case; the coordinator's step matching makes a
// redundant re-drive a no-op.
type Watchdog struct {
	executions persistence.ExecutionRepository
	publisher  eventbus.EventPublisher
	threshold  time.Duration
	cron       *cron.Cron
	logger     *slog.Logger
}

func NewWatchdog(executions persistence.ExecutionRepository, publisher eventbus.EventPublisher, threshold time.Duration, logger *slog.Logger) *Watchdog {
	if threshold <= 0 {
		threshold = defaultStallThreshold
	}

	return &Watchdog{
		executions: executions,
		publisher:  publisher,
		threshold:  threshold,
		cron:       cron.New(),
		logger:     logger.With("module", "watchdog"),
	}
}

// Start schedules the sweep to run once a minute.
func (w *Watchdog) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc("* * * * *", func() {
		if err := w.sweep(ctx); err != nil {
			w.logger.Error("Watchdog sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	w.logger.Info("Watchdog started", "stall_threshold", w.threshold)

	return nil
}

func (w *Watchdog) Stop() {
	<-w.cron.Stop().Done()
}

func (w *Watchdog) sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-w.threshold)

	stalled, err := w.executions.ListStalled(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, execution := range stalled {
		if execution.CurrentNodeID == nil {
			continue
		}

		activation := events.NodeActivation{
			BaseEvent:   events.NewBaseEvent(events.NodeActivationEvent, execution.FlowID),
			ExecutionID: execution.ID,
			NodeID:      *execution.CurrentNodeID,
			Step:        execution.StepCount,
		}
		activation.OwnerID = execution.OwnerID

		if err := w.publisher.Publish(ctx, execution.ID, activation); err != nil {
			w.logger.Error("Failed to re-drive stalled execution",
				"execution_id", execution.ID, "error", err)

			continue
		}

		w.logger.Warn("Re-drove stalled execution",
			"execution_id", execution.ID, "node_id", *execution.CurrentNodeID,
			"stalled_since", execution.UpdatedAt)
	}

	return nil
}
