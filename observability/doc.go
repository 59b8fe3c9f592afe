// Package observability provides OpenTelemetry tracing and metrics for the
// media pipeline.
//
// Tracing:
//
//	ctx, op := observability.StartOperation(ctx, observability.SpanPresign,
//	    attribute.Int(observability.AttrRefCount, len(refs)))
//	defer func() { op.End(err) }()
//
// Metrics:
//
//	m, err := observability.NewPipelineMetrics(observability.Meter())
//	m.RecordReferences(ctx, observability.OutcomeIdentity, 3)
//
// The Component installs OTLP HTTP exporters when observability.enabled is
// set. Otherwise the global no-op providers stay in place.
package observability
