package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newRecorder installs a recording provider as the global provider for one test.
func newRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return recorder
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value.Emit(), true
		}
	}
	return "", false
}

func TestStartDBSpan(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		operation DBOperation
		wantName  string
	}{
		{"query with table", "reels", DBOperationQuery, "query reels"},
		{"insert with table", "likes", DBOperationInsert, "insert likes"},
		{"update with table", "progress", DBOperationUpdate, "update progress"},
		{"delete with table", "stories", DBOperationDelete, "delete stories"},
		{"query without table", "", DBOperationQuery, "query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := newRecorder(t)

			_, endSpan := StartDBSpan(context.Background(), tt.table, tt.operation)
			endSpan(nil)

			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			span := spans[0]

			if span.Name() != tt.wantName {
				t.Errorf("expected span name %q, got %q", tt.wantName, span.Name())
			}
			if v, _ := attrValue(span.Attributes(), "db.system"); v != "postgresql" {
				t.Errorf("expected db.system=postgresql, got %q", v)
			}
			if v, _ := attrValue(span.Attributes(), "db.operation"); v != string(tt.operation) {
				t.Errorf("expected db.operation=%s, got %q", tt.operation, v)
			}
			v, ok := attrValue(span.Attributes(), "db.sql.table")
			if tt.table == "" && ok {
				t.Error("expected no db.sql.table attribute without a table")
			}
			if tt.table != "" && v != tt.table {
				t.Errorf("expected db.sql.table=%s, got %q", tt.table, v)
			}
		})
	}
}

func TestStartSpan_RecordsError(t *testing.T) {
	recorder := newRecorder(t)

	_, endSpan := StartSpan(context.Background(), "feed.assemble", attribute.String("user.id", "u1"))
	endSpan(errors.New("store unavailable"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]

	if span.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", span.Status().Code)
	}
	if len(span.Events()) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
	if v, _ := attrValue(span.Attributes(), "user.id"); v != "u1" {
		t.Errorf("expected user.id attribute, got %q", v)
	}
}

func TestAddEventAndSetAttributes(t *testing.T) {
	recorder := newRecorder(t)

	ctx, endSpan := StartSpan(context.Background(), "rank")
	AddEvent(ctx, "diversified", attribute.Int("substitutions", 2))
	SetAttributes(ctx, attribute.Int("candidates", 40))
	endSpan(nil)

	span := recorder.Ended()[0]
	if len(span.Events()) != 1 || span.Events()[0].Name != "diversified" {
		t.Errorf("expected one diversified event, got %+v", span.Events())
	}
	if v, _ := attrValue(span.Attributes(), "candidates"); v != "40" {
		t.Errorf("expected candidates=40, got %q", v)
	}
	if span.Status().Code == codes.Error {
		t.Error("expected non-error status")
	}
}

func TestHelpers_NoActiveSpan(t *testing.T) {
	// Without a span in the context these must be no-ops rather than panics.
	AddEvent(context.Background(), "orphan")
	SetAttributes(context.Background(), attribute.Bool("orphan", true))
}
