// Package schedule holds the deferred-dispatch side of the engine: the Redis
// delay queue that resumes suspended executions and the watchdog that
// re-drives stalled ones.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/eventbus"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/events"
)

const (
	delayedSetKey = "flows:delayed"
	pollInterval  = 1 * time.Second
)

// RedisDelayQueue stores pending node activations in a sorted set scored by
// their resume time. Schedule is called by the coordinator; Drain runs in the
// scheduler process and republishes every activation that has come due.
// Losing a drained activation to a crash is recoverable: the watchdog
// re-drives the execution, and step matching makes duplicates harmless.
type RedisDelayQueue struct {
	client    redis.UniversalClient
	publisher eventbus.EventPublisher
	logger    *slog.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

func NewRedisDelayQueue(client redis.UniversalClient, publisher eventbus.EventPublisher, logger *slog.Logger) *RedisDelayQueue {
	return &RedisDelayQueue{
		client:    client,
		publisher: publisher,
		logger:    logger.With("module", "delay_queue"),
		stopCh:    make(chan struct{}),
	}
}

// Schedule enqueues the activation to be published at the given instant.
func (q *RedisDelayQueue) Schedule(ctx context.Context, activation events.NodeActivation, at time.Time) error {
	payload, err := json.Marshal(activation)
	if err != nil {
		return fmt.Errorf("failed to marshal activation: %w", err)
	}

	err = q.client.ZAdd(ctx, delayedSetKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: payload,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue delayed activation: %w", err)
	}

	q.logger.Debug("Scheduled delayed activation",
		"execution_id", activation.ExecutionID, "node_id", activation.NodeID, "at", at)

	return nil
}

// Start launches the drain loop.
func (q *RedisDelayQueue) Start(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	q.wg.Add(1)

	go q.drain(ctx)

	return nil
}

func (q *RedisDelayQueue) Stop() {
	close(q.stopCh)
	q.wg.Wait()
}

func (q *RedisDelayQueue) drain(ctx context.Context) {
	defer q.wg.Done()

	q.logger.Info("Starting delay queue drain loop")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			q.logger.Info("Delay queue drain loop stopped")

			return
		case <-ctx.Done():
			q.logger.Info("Context cancelled, stopping delay queue drain loop")

			return
		case <-ticker.C:
			if err := q.drainDue(ctx); err != nil {
				q.logger.Error("Error draining delay queue", "error", err)
			}
		}
	}
}

// drainDue republishes every activation whose resume time has passed. The
// member is removed before publishing; a crash in between is covered by the
// watchdog.
func (q *RedisDelayQueue) drainDue(ctx context.Context) error {
	now := time.Now().UTC()

	members, err := q.client.ZRangeByScore(ctx, delayedSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to read due activations: %w", err)
	}

	for _, member := range members {
		removed, err := q.client.ZRem(ctx, delayedSetKey, member).Result()
		if err != nil {
			return fmt.Errorf("failed to remove due activation: %w", err)
		}

		// Another scheduler instance claimed it first.
		if removed == 0 {
			continue
		}

		var activation events.NodeActivation
		if err := json.Unmarshal([]byte(member), &activation); err != nil {
			q.logger.Error("Dropping malformed delayed activation", "error", err)

			continue
		}

		if err := q.publisher.Publish(ctx, activation.ExecutionID, activation); err != nil {
			q.logger.Error("Failed to publish resumed activation",
				"execution_id", activation.ExecutionID, "error", err)

			continue
		}

		q.logger.Info("Resumed delayed activation",
			"execution_id", activation.ExecutionID, "node_id", activation.NodeID)
	}

	return nil
}
