// Package tracing provides OpenTelemetry tracer setup and span helpers for the Reeled API.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceVersion is reported as the service.version resource attribute.
const ServiceVersion = "0.1.0"

// Exporter types accepted in Config.ExporterType.
const (
	ExporterHTTP = "http"
	ExporterGRPC = "grpc"
)

// Provider construction errors.
var (
	ErrMissingServiceName  = errors.New("service name is required")
	ErrInvalidSamplingRate = errors.New("sampling rate must be between 0 and 1")
	ErrUnsupportedExporter = errors.New("unsupported exporter type")
)

// Config holds the configuration for distributed tracing.
type Config struct {
	ServiceName  string
	Enabled      bool
	Environment  string
	ExporterType string // ExporterHTTP (default) or ExporterGRPC
	OTLPEndpoint string
	SamplingRate float64 // fraction of root traces sampled
	InsecureMode bool    // disables TLS to the collector; development only
}

// Provider manages the OpenTelemetry tracer provider.
// A disabled Provider hands out the global no-op tracer.
type Provider struct {
	tp     *sdktrace.TracerProvider
	config Config
}

// NewProvider creates and installs a tracer provider as the global otel provider.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		slog.Info("tracing disabled")
		return &Provider{config: cfg}, nil
	}

	if cfg.ServiceName == "" {
		return nil, ErrMissingServiceName
	}
	if cfg.SamplingRate < 0 || cfg.SamplingRate > 1 {
		return nil, fmt.Errorf("%w, got %f", ErrInvalidSamplingRate, cfg.SamplingRate)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(cfg.SamplingRate))),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("tracing initialized",
		"service", cfg.ServiceName,
		"exporter", cfg.ExporterType,
		"endpoint", cfg.OTLPEndpoint,
		"sampling_rate", cfg.SamplingRate,
		"environment", cfg.Environment,
	)

	return &Provider{tp: tp, config: cfg}, nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch rate {
	case 1.0:
		return sdktrace.AlwaysSample()
	case 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.ExporterType {
	case ExporterHTTP, "":
		opts := []otlptracehttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.InsecureMode {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	case ExporterGRPC:
		opts := []otlptracegrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.InsecureMode {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExporter, cfg.ExporterType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s exporter: %w", cfg.ExporterType, err)
	}
	return exporter, nil
}

// Shutdown flushes pending spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}

	slog.Info("shutting down tracer provider")
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}

// Tracer returns a tracer for the given name.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.tp == nil {
		return otel.Tracer(name)
	}
	return p.tp.Tracer(name)
}

// IsEnabled returns whether tracing is enabled.
func (p *Provider) IsEnabled() bool {
	return p.config.Enabled
}
