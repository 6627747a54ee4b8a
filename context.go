package sessiongate

import (
	"context"

	"github.com/cityhealth/sessiongate/internal/endpoint"
)

// WithRequestID attaches a correlation ID to ctx. Every backend call made
// under ctx carries it as the X-Request-ID header; without one, the engine
// generates a fresh UUID per call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return endpoint.ContextWithRequestID(ctx, id)
}
