package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/colorfulnotion/rollup/log"
)

const ServiceName = "blockbuilder"

// Tracing owns the tracer provider installed for the process.
type Tracing struct {
	provider *sdktrace.TracerProvider
	disabled bool // if true, the global no-op provider stays in place
}

// NewNoOpTracing leaves spans unrecorded.
func NewNoOpTracing() *Tracing {
	return &Tracing{disabled: true}
}

// InitTracing exports spans over OTLP/HTTP to endpoint, given either as
// host:port or as a URL. An empty endpoint disables tracing.
func InitTracing(ctx context.Context, endpoint string) (*Tracing, error) {
	if endpoint == "" {
		return NewNoOpTracing(), nil
	}
	var opts []otlptracehttp.Option
	if strings.Contains(endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter for %s: %w", endpoint, err)
	}
	t := NewTracing(sdktrace.WithBatcher(exporter))
	log.Info(log.BlockBuilding, "tracing enabled", "endpoint", endpoint)
	return t, nil
}

// NewTracing installs an SDK provider built with the given options.
func NewTracing(opts ...sdktrace.TracerProviderOption) *Tracing {
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	}, opts...)
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return &Tracing{provider: tp}
}

func (t *Tracing) Enabled() bool {
	return !t.disabled
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.disabled {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
