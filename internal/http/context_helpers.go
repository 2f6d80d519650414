package httpx

import (
	"context"

	"github.com/google/uuid"
)

// requestIDKey is an unexported context key type to avoid collisions across packages.
type requestIDKey struct{}

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-ID"

// SetRequestIDInContext returns a child context carrying id.
// If id is empty, the original ctx is returned unchanged.
func SetRequestIDInContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestIDFromContext returns the request id and a boolean indicating presence.
func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// newRequestID returns a random request id.
func newRequestID() string {
	return uuid.NewString()
}
