package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabels(t *testing.T) {
	got := sanitizeLabels(map[string]string{
		"Webhook-Topic": "orders/create",
		"order_id":      "1001",
		"route":         "",
		"shop":          strings.Repeat("a", MaxLabelValueLength+10),
		"!!!":           "dropped",
	})

	assert.Equal(t, []string{
		"webhook_topic", "orders/create",
		"shop", strings.Repeat("a", MaxLabelValueLength),
	}, got)
	assert.Nil(t, sanitizeLabels(nil))
}

func TestWithProfilingLabels(t *testing.T) {
	var topic string
	WithProfilingLabels(context.Background(), map[string]string{
		ProfilingLabelWebhookTopic: "orders/fulfilled",
		"request_id":               "abc",
	}, func(ctx context.Context) {
		topic, _ = pprof.Label(ctx, ProfilingLabelWebhookTopic)
		_, hasRequestID := pprof.Label(ctx, "request_id")
		assert.False(t, hasRequestID)
	})
	assert.Equal(t, "orders/fulfilled", topic)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}
