// Package tracing wraps OpenTelemetry for the staging pipeline: span helpers
// plus the unit and import attributes every span carries.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Ramsey-B/fern"

const (
	AttrExternalID     = attribute.Key("fern.unit.external_id")
	AttrStagedUnitID   = attribute.Key("fern.unit.staged_id")
	AttrImportSource   = attribute.Key("fern.import.source")
	AttrSkipDuplicates = attribute.Key("fern.import.skip_duplicates")
	AttrUpdateExisting = attribute.Key("fern.import.update_existing")
)

// StartSpan starts a child span from the global provider. Before Setup runs
// the provider is a no-op.
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace id carried by ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// RecordError marks the span in ctx as failed.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Annotate adds attributes to the span in ctx.
func Annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
