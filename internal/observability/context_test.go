package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
}

func TestClientIPContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ClientIPFromContext(ctx))

	ctx = WithClientIP(ctx, "203.0.113.7")
	assert.Equal(t, "203.0.113.7", ClientIPFromContext(ctx))
}

func TestContextValueTypes(t *testing.T) {
	// A plain string key must not collide with the typed context key.
	ctx := context.WithValue(context.Background(), "request_id", "shadow") //nolint:staticcheck
	assert.Empty(t, RequestIDFromContext(ctx))
}
