package usecases

import (
	"context"
	"errors"
)

// ErrDecisionLogDisabled is returned when no decision log is configured.
var ErrDecisionLogDisabled = errors.New("decision log disabled")

type requestIDKey struct{}

// ContextWithRequestID attaches a request ID to ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID, or "" if none.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
