package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidConfigs(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := New("info", format)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New("info", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format must be")
}

func TestContextFields_RequestID(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-42")

	fields := ContextFields(ctx)
	require.Len(t, fields, 1)
	assert.Equal(t, "request.id", fields[0].Key)
	assert.Equal(t, "req-42", RequestIDFromContext(ctx))
}

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))

	// Empty request IDs are not stored.
	ctx := ContextWithRequestID(context.Background(), "")
	assert.Empty(t, ContextFields(ctx))
}
