package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config holds OpenTelemetry export configuration
type Config struct {
	// Enabled turns span and log export on
	Enabled bool

	// Endpoint is the OTLP collector endpoint (e.g., "localhost:4317")
	Endpoint string

	// ServiceName is reported as service.name
	ServiceName string

	// ServiceVersion is reported as service.version
	ServiceVersion string

	// Environment is the deployment environment (e.g., "laptop", "ci")
	Environment string

	// Insecure disables TLS for the collector connection
	Insecure bool

	// UseHTTP exports over OTLP/HTTP instead of gRPC
	UseHTTP bool

	// Headers are sent with every export request
	Headers map[string]string

	// BatchTimeout is the longest a span or record waits before export
	BatchTimeout time.Duration
}

// DefaultConfig returns the default export configuration, disabled
func DefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		Endpoint:       "localhost:4317",
		ServiceName:    "repolens",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		Insecure:       true,
		Headers:        make(map[string]string),
		BatchTimeout:   5 * time.Second,
	}
}

// Provider owns the SDK tracer and logger providers of one process
type Provider struct {
	config         *Config
	tracerProvider *sdktrace.TracerProvider
	logProvider    *sdklog.LoggerProvider
	logger         log.Logger
	conn           *grpc.ClientConn
}

// NewProvider builds OTLP exporters for spans and logs. Call Install to make
// the tracer provider global and Shutdown to flush on exit.
func NewProvider(ctx context.Context, cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("OTEL is not enabled")
	}

	var (
		spans sdktrace.SpanExporter
		logs  sdklog.Exporter
		conn  *grpc.ClientConn
		err   error
	)
	if cfg.UseHTTP {
		spans, logs, err = httpExporters(ctx, cfg)
	} else {
		spans, logs, conn, err = grpcExporters(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	p, err := newProvider(cfg, spans, logs)
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// newProvider wires exporters into batching SDK providers
func newProvider(cfg *Config, spans sdktrace.SpanExporter, logs sdklog.Exporter) (*Provider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var (
		spanOpts []sdktrace.BatchSpanProcessorOption
		logOpts  []sdklog.BatchProcessorOption
	)
	if cfg.BatchTimeout > 0 {
		spanOpts = append(spanOpts, sdktrace.WithBatchTimeout(cfg.BatchTimeout))
		logOpts = append(logOpts, sdklog.WithExportTimeout(cfg.BatchTimeout))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(spans, spanOpts...),
	)
	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logs, logOpts...)),
	)

	return &Provider{
		config:         cfg,
		tracerProvider: tp,
		logProvider:    lp,
		logger:         lp.Logger(InstrumentationName),
	}, nil
}

func grpcExporters(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, sdklog.Exporter, *grpc.ClientConn, error) {
	if !cfg.Insecure {
		spans, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithHeaders(cfg.Headers),
		)
		if err != nil {
			return nil, nil, nil, err
		}
		logs, err := otlploggrpc.New(ctx,
			otlploggrpc.WithEndpoint(cfg.Endpoint),
			otlploggrpc.WithHeaders(cfg.Headers),
		)
		if err != nil {
			_ = spans.Shutdown(ctx)
			return nil, nil, nil, err
		}
		return spans, logs, nil, nil
	}

	// One plaintext connection serves both signals
	conn, err := grpc.NewClient(cfg.Endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}
	spans, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithGRPCConn(conn),
		otlptracegrpc.WithHeaders(cfg.Headers),
	)
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	logs, err := otlploggrpc.New(ctx,
		otlploggrpc.WithGRPCConn(conn),
		otlploggrpc.WithHeaders(cfg.Headers),
	)
	if err != nil {
		_ = spans.Shutdown(ctx)
		_ = conn.Close()
		return nil, nil, nil, err
	}
	return spans, logs, conn, nil
}

func httpExporters(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, sdklog.Exporter, error) {
	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	logOpts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		logOpts = append(logOpts, otlploghttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		traceOpts = append(traceOpts, otlptracehttp.WithHeaders(cfg.Headers))
		logOpts = append(logOpts, otlploghttp.WithHeaders(cfg.Headers))
	}

	spans, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, nil, err
	}
	logs, err := otlploghttp.New(ctx, logOpts...)
	if err != nil {
		_ = spans.Shutdown(ctx)
		return nil, nil, err
	}
	return spans, logs, nil
}

// Install makes this provider the global tracer provider used by StartSpan
func (p *Provider) Install() {
	otel.SetTracerProvider(p.tracerProvider)
}

// Logger returns the OTEL logger that log records are emitted to
func (p *Provider) Logger() log.Logger {
	return p.logger
}

// ForceFlush exports pending spans and log records
func (p *Provider) ForceFlush(ctx context.Context) error {
	return errors.Join(
		p.tracerProvider.ForceFlush(ctx),
		p.logProvider.ForceFlush(ctx),
	)
}

// Shutdown flushes and stops both providers and closes the shared connection
func (p *Provider) Shutdown(ctx context.Context) error {
	err := errors.Join(
		p.tracerProvider.Shutdown(ctx),
		p.logProvider.Shutdown(ctx),
	)
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}

// Close implements io.Closer for the provider
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Shutdown(ctx)
}

var _ io.Closer = (*Provider)(nil)
