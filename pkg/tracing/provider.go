package tracing

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

// ProviderConfig selects where spans go. An empty Endpoint sends them to the log.
type ProviderConfig struct {
	ServiceName string
	Version     string
	Endpoint    string
	Protocol    string
	Insecure    bool
	SampleRatio float64
}

func newExporter(ctx context.Context, cfg ProviderConfig, logger ectologger.Logger) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint == "" {
		return &exporters.LogExporter{Logger: logger}, nil
	}

	protocol, err := exporters.ParseProtocol(cfg.Protocol)
	if err != nil {
		return nil, err
	}
	return exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.Endpoint,
		Protocol: protocol,
		Insecure: cfg.Insecure,
	})
}

// Setup installs a global tracer provider and returns its shutdown func, which
// flushes pending spans.
func Setup(ctx context.Context, cfg ProviderConfig, logger ectologger.Logger) (func(context.Context) error, error) {
	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Errorf("Failed to create span exporter for %q", cfg.Endpoint)
		return nil, err
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.Version),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.WithFields(map[string]any{
		"endpoint":     cfg.Endpoint,
		"protocol":     cfg.Protocol,
		"sample_ratio": ratio,
	}).Info("Tracing initialized")

	return provider.Shutdown, nil
}
