// Package tracing sets up OpenTelemetry and wraps the store with spans.
package tracing

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ritu11x/cortex-ai/internal/config"
)

// InstrumentationName names the tracer used across the service.
const InstrumentationName = "github.com/ritu11x/cortex-ai"

// Provider owns the SDK tracer provider, if any.
type Provider struct {
	sdk    *sdktrace.TracerProvider
	tracer trace.Tracer
}

// NewProvider exports spans over OTLP gRPC when tracing is enabled, and
// hands out a no-op tracer otherwise.
func NewProvider(ctx context.Context, cfg config.Tracing, env config.Environment) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(InstrumentationName)}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	return newSDKProvider(sdktrace.WithBatcher(exporter), cfg, env)
}

// NewProviderWithExporter builds an SDK provider over a span processor, used
// by tests with a recorder.
func NewProviderWithExporter(processor sdktrace.SpanProcessor, cfg config.Tracing, env config.Environment) (*Provider, error) {
	return newSDKProvider(sdktrace.WithSpanProcessor(processor), cfg, env)
}

func newSDKProvider(export sdktrace.TracerProviderOption, cfg config.Tracing, env config.Environment) (*Provider, error) {
	res, err := newResource(cfg, env)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		export,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{sdk: tp, tracer: tp.Tracer(InstrumentationName)}, nil
}

func newResource(cfg config.Tracing, env config.Environment) (*resource.Resource, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "cortex-api"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		attribute.String("deployment.environment", string(env)),
	}
	if hostname, err := os.Hostname(); err == nil {
		attrs = append(attrs, semconv.HostName(hostname))
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		attrs = append(attrs, attribute.String("faas.name", fn))
	}
	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}

// Tracer returns the service tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}
