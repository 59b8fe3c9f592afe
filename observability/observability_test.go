package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/estatly/mediasign/logger"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.Interval != 15*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample_rate > 1")
	}
}

func TestConfig_TracerConfig(t *testing.T) {
	cfg := Config{Endpoint: "otel:4318", SampleRate: 0.5}
	tc := cfg.TracerConfig("mediasign", "1.2.3", "production")
	if tc.ServiceName != "mediasign" || tc.Endpoint != "otel:4318" || tc.SampleRate != 0.5 {
		t.Errorf("TracerConfig() = %+v", tc)
	}
}

func TestPipelineMetrics(t *testing.T) {
	m, err := NewPipelineMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewPipelineMetrics() error = %v", err)
	}
	ctx := context.Background()
	m.RecordReferences(ctx, OutcomeSigned, 3)
	m.RecordBatch(ctx, OutcomeOK, 20*time.Millisecond)
	m.RecordEmbed(ctx, OutcomeServer)
	m.RecordSlot(ctx, OutcomeLoaded)
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	ctx := context.Background()
	m.RecordReferences(ctx, OutcomeSigned, 1)
	m.RecordBatch(ctx, OutcomeFailed, time.Second)
	m.RecordEmbed(ctx, OutcomeUnavailable)
	m.RecordSlot(ctx, OutcomeError)
}

func TestStartOperation_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx := logger.ContextWithRequestID(context.Background(), "req-1")
	_, op := StartOperation(ctx, SpanPresign, attribute.Int(AttrRefCount, 2))
	op.End(errors.New("boom"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != SpanPresign {
		t.Errorf("span name = %q", span.Name())
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrRequestID].AsString() != "req-1" {
		t.Errorf("request id attribute = %v", attrs[AttrRequestID])
	}
	if attrs[AttrStatus].AsString() != OutcomeFailed {
		t.Errorf("status attribute = %v", attrs[AttrStatus])
	}
	if len(span.Events()) == 0 {
		t.Error("expected error event on span")
	}
}

func TestComponent_DisabledIsNoop(t *testing.T) {
	c := NewComponent(Config{}, "mediasign", "dev", "development", logger.Nop())
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if h := c.Health(ctx); h.Message != "disabled" {
		t.Errorf("Health().Message = %q", h.Message)
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
