package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPropagateToLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-123")
	ctx = WithSessionID(ctx, "session-abc")

	LoggerFromContext(ctx, logger).Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "trace-123") {
		t.Error("Log output missing trace ID")
	}
	if !strings.Contains(output, "session-abc") {
		t.Error("Log output missing session ID")
	}
	if strings.Contains(output, "request_id") {
		t.Error("Log output should not include an empty request ID")
	}
}

func TestDetach(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	parent = WithTraceID(parent, "trace-123")
	cancel()

	detached := Detach(parent)

	if detached.Err() != nil {
		t.Error("Detached context should not inherit cancellation")
	}
	if GetTraceID(detached) != "trace-123" {
		t.Error("Trace ID not carried over")
	}
}

func TestStartSpan(t *testing.T) {
	if err := InitOpenTelemetry("thakir-test", true); err != nil {
		t.Fatalf("InitOpenTelemetry failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "test", "unit")
	defer span.End()

	if !span.SpanContext().IsValid() {
		t.Fatal("Expected a valid span context")
	}
	if GetTraceID(ctx) != span.SpanContext().TraceID().String() {
		t.Error("Trace ID not recorded from span")
	}
}
