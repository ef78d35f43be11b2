// Package eventlog defines the audit trail for verified webhook deliveries.
//
// Each signature-verified provider event is appended here together with its
// processing outcome. It serves two purposes:
//
//  1. Observability: you can see every delivery the provider made, what it
//     was, and what the service did with it, correlated with the distributed
//     trace via the trace_id field.
//
//  2. Reconciliation: sessions that completed at the provider but failed to
//     record locally show up as FAILED rows, so an operator can replay them
//     instead of losing the sale silently.
package eventlog

import "time"

// Status is the processing outcome of one webhook delivery.
type Status string

const (
	// StatusIgnored marks event types the service deliberately does not
	// handle. They are still acknowledged to the provider.
	StatusIgnored Status = "IGNORED"

	// StatusRecorded marks a completed-checkout event whose sale was inserted
	// by this delivery.
	StatusRecorded Status = "RECORDED"

	// StatusDuplicate marks a redelivery of a session that was already
	// recorded. The store treated it as a no-op.
	StatusDuplicate Status = "DUPLICATE"

	// StatusFailed marks a completed-checkout event whose recording errored.
	// The delivery was not acknowledged, so the provider will retry.
	StatusFailed Status = "FAILED"
)

// Entry is a single row in the webhook_events table.
type Entry struct {
	// EventID is the provider's event identifier.
	EventID string

	// EventType is the provider event type string.
	EventType string

	// SessionID is the checkout session the event refers to. Empty for event
	// types that do not carry a session.
	SessionID string

	// Status is the processing outcome.
	Status Status

	// Error holds the failure detail for FAILED rows, empty otherwise.
	Error string

	// TraceID is the W3C trace ID extracted from the active OpenTelemetry
	// span, so a row can be joined with the full request trace.
	TraceID string

	// SpanID pinpoints the span within the trace.
	SpanID string

	// ReceivedAt is the wall-clock time the delivery was processed.
	ReceivedAt time.Time
}
