package cmd

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/otelhelper"
)

// NewTracer returns an OTLP-exporting tracer when OTEL_EXPORTER_OTLP_ENDPOINT
// is configured, a no-op tracer otherwise.
//
// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func NewTracer(ctx context.Context, serviceName string, logger *slog.Logger) trace.Tracer {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return noop.NewTracerProvider().Tracer(serviceName)
	}

	tracer, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		logger.Warn("Failed to initialize tracer, tracing disabled", "error", err)

		return noop.NewTracerProvider().Tracer(serviceName)
	}

	return tracer
}
