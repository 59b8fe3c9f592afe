package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/estatly/mediasign/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns the module meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Outcome labels shared by the pipeline instruments.
const (
	OutcomeSigned      = "signed"
	OutcomeIdentity    = "identity"
	OutcomeCached      = "cached"
	OutcomeFailed      = "failed"
	OutcomeOK          = "ok"
	OutcomeServer      = "server"
	OutcomeLocal       = "local"
	OutcomeUnavailable = "unavailable"
	OutcomeLoaded      = "loaded"
	OutcomeError       = "error"
)

// PipelineMetrics holds the instruments of the resolution pipeline. A nil
// *PipelineMetrics records nothing.
type PipelineMetrics struct {
	references    metric.Int64Counter
	batches       metric.Int64Counter
	batchDuration metric.Float64Histogram
	embeds        metric.Int64Counter
	slots         metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	references, err := meter.Int64Counter("media.references",
		metric.WithDescription("References resolved, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating media.references counter: %w", err)
	}

	batches, err := meter.Int64Counter("media.batches",
		metric.WithDescription("Presign batches issued, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating media.batches counter: %w", err)
	}

	batchDuration, err := meter.Float64Histogram("media.batch.duration",
		metric.WithDescription("Duration of presign batches in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating media.batch.duration histogram: %w", err)
	}

	embeds, err := meter.Int64Counter("media.embeds",
		metric.WithDescription("Document media embeds, by path taken"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating media.embeds counter: %w", err)
	}

	slots, err := meter.Int64Counter("media.slots",
		metric.WithDescription("Gallery slots reaching a terminal state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating media.slots counter: %w", err)
	}

	return &PipelineMetrics{
		references:    references,
		batches:       batches,
		batchDuration: batchDuration,
		embeds:        embeds,
		slots:         slots,
	}, nil
}

// RecordReferences adds n references resolved with outcome.
func (m *PipelineMetrics) RecordReferences(ctx context.Context, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.references.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordBatch records one presign batch.
func (m *PipelineMetrics) RecordBatch(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.batches.Add(ctx, 1, attrs)
	m.batchDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordEmbed records which path produced a document embed.
func (m *PipelineMetrics) RecordEmbed(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.embeds.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordSlot records a gallery slot reaching a terminal state.
func (m *PipelineMetrics) RecordSlot(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.slots.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
