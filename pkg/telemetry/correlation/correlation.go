// Package correlation manages correlation identifiers propagated across
// request and background scopes.
package correlation

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
)

// correlationKey is an unexported type for context keys within this package.
type correlationKey struct{}

// ExtractCorrelationID fetches a correlation ID from the context if present.
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(correlationKey{}).(string); ok {
		return val
	}
	return ""
}

// ContextWithCorrelationID sets the correlation ID onto the context.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// EnsureCorrelationID guarantees a correlation ID on the context, generating
// one when missing. The active trace ID is preferred when a span is recording.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if ExtractCorrelationID(ctx) != "" {
		return ctx
	}
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		return ContextWithCorrelationID(ctx, span.SpanContext().TraceID().String())
	}
	return ContextWithCorrelationID(ctx, NewCorrelationID())
}

// NewCorrelationID mints a lexicographically sortable correlation ID.
func NewCorrelationID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}
