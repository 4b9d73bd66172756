// Package main runs the scheduler process: the delay queue drain loop and
// the stalled-execution watchdog.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/cmd"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/log"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/schedule"
)

func main() {
	logger := log.WithModule("flows-scheduler")

	command := &cli.Command{
		Name:                  "flows-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Resume delayed executions and re-drive stalled ones",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for the delay queue",
				Value:   "redis://localhost:6379/0",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "stall-threshold",
				Usage:   "How long a running execution's cursor may sit still before re-drive",
				Value:   10 * time.Minute,
				Sources: cli.EnvVars("STALL_THRESHOLD"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Flows Scheduler")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			delayQueue := cmd.NewDelayQueue(command.String("redis-url"), eventBus, logger)
			if err := delayQueue.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start delay queue", "error", err)

				return err
			}
			defer delayQueue.Stop()

			watchdog := schedule.NewWatchdog(
				persistence.ExecutionRepository(),
				eventBus,
				command.Duration("stall-threshold"),
				logger,
			)
			if err := watchdog.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start watchdog", "error", err)

				return err
			}
			defer watchdog.Stop()

			logger.InfoContext(ctx, "Scheduler started successfully")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			<-sigChan
			logger.InfoContext(ctx, "Shutting down scheduler...")

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
