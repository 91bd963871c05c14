package correlationid

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// HeaderName is the HTTP header carrying the correlation ID.
const HeaderName = "X-Correlation-Id"

// New generates a new correlation ID.
func New() string {
	return uuid.NewString()
}

// NewContext returns a new context carrying the given correlation ID.
func NewContext(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, contextKey{}, correlationID)
}

// FromContext extracts the correlation ID from the context.
func FromContext(ctx context.Context) (string, bool) {
	correlationID, ok := ctx.Value(contextKey{}).(string)
	return correlationID, ok
}
