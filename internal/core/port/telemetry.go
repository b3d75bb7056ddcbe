package port

import (
	"context"
	"time"
)

// Span is the tracing handle returned by a Telemetry probe.
type Span interface {
	End()
	SetAttributes(attrs map[string]interface{})
	SetStatus(code string, message string)
	RecordError(err error)
}

// Telemetry lets the persistence and HTTP layers emit traces, metrics and
// events without depending on a concrete backend.
type Telemetry interface {
	// Tracing
	StartRepositorySpan(ctx context.Context, operation string, entity string, attrs map[string]interface{}) (context.Context, Span)
	StartHTTPSpan(ctx context.Context, method string, path string, attrs map[string]interface{}) (context.Context, Span)

	// Repository operations
	RecordRepositoryOperation(ctx context.Context, operation string, entity string, duration time.Duration, err error)
	RecordRepositoryQuery(ctx context.Context, operation string, entity string, query string, args []interface{})

	// Business events
	RecordBusinessEvent(ctx context.Context, event string, entity string, entityID string, metadata map[string]interface{})

	// Errors
	RecordError(ctx context.Context, operation string, err error, metadata map[string]interface{})
}
