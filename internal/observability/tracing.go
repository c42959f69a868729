package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InitTracing sets up a basic tracer provider without an exporter
// (development only). Returns a shutdown func to flush spans.
func InitTracing(service string, logger *zap.Logger) (func(context.Context) error, error) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	logger.Info("tracing initialized", zap.String("service", service), zap.String("exporter", "none"))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the service tracer for span creation around model calls.
func Tracer() trace.Tracer {
	return otel.Tracer("sparkdesk")
}
