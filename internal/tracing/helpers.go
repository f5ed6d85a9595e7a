package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer names used by the span helpers.
const (
	tracerName   = "reeled"
	dbTracerName = "reeled/db"
)

// DBOperation represents the type of database operation being traced.
type DBOperation string

// Database operations.
const (
	DBOperationQuery  DBOperation = "query"
	DBOperationInsert DBOperation = "insert"
	DBOperationUpdate DBOperation = "update"
	DBOperationDelete DBOperation = "delete"
)

// StartDBSpan creates a client span for a database operation on table.
// The returned function ends the span, recording err when non-nil.
//
//	ctx, endSpan := tracing.StartDBSpan(ctx, "reels", tracing.DBOperationQuery)
//	defer func() { endSpan(err) }()
func StartDBSpan(ctx context.Context, table string, operation DBOperation) (context.Context, func(error)) {
	spanName := string(operation)
	if table != "" {
		spanName += " " + table
	}

	ctx, span := otel.Tracer(dbTracerName).Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", string(operation)),
		),
	)
	if table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}

	return ctx, endFunc(span)
}

// StartSpan creates an internal span named name.
// The returned function ends the span, recording err when non-nil.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, endFunc(span)
}

func endFunc(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
