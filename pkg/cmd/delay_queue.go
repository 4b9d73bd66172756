package cmd

import (
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/eventbus"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/schedule"
)

func NewDelayQueue(redisURL string, publisher eventbus.EventPublisher, logger *slog.Logger) *schedule.RedisDelayQueue {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("invalid redis URL: %w", err))
	}

	return schedule.NewRedisDelayQueue(redis.NewClient(opts), publisher, logger)
}
