package eventlog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	// TraceID is the W3C trace ID (32 lowercase hex chars).
	// Empty string if no active span is found in the context.
	TraceID string

	// SpanID is the W3C span ID (16 lowercase hex chars).
	SpanID string
}

// ExtractTraceInfo reads the active OpenTelemetry span from ctx and returns
// its trace_id and span_id as hex strings. If the context carries no active
// span (e.g. in unit tests), both fields come back empty — callers should
// handle this gracefully.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}

	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an Entry with the trace info extracted from ctx.
func NewEntry(ctx context.Context, eventID, eventType, sessionID string, status Status, errMsg string) *Entry {
	ti := ExtractTraceInfo(ctx)

	return &Entry{
		EventID:    eventID,
		EventType:  eventType,
		SessionID:  sessionID,
		Status:     status,
		Error:      errMsg,
		TraceID:    ti.TraceID,
		SpanID:     ti.SpanID,
		ReceivedAt: time.Now().UTC(),
	}
}
