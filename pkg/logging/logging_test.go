package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("warn", &buf)

	l.Info("dropped")
	l.Warn("refund_order_error", "status", 409)

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "refund_order_error")
	assert.Contains(t, out, `"status":409`)
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("info", &buf).With("handler", "orders.get")

	ctx := IntoContext(context.Background(), l)
	FromContext(ctx).Info("get_order_success")

	require.Contains(t, buf.String(), `"handler":"orders.get"`)
}

func TestFromContext_DefaultsToSlogDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
