package shipping

import (
	"context"
	"time"
)

// Metrics receives shipping counters. *telemetry.ShippingMetrics implements it.
type Metrics interface {
	RecordQuote(ctx context.Context, outcome string)
	RecordShipment(ctx context.Context, outcome, serviceType string)
	RecordWebhook(ctx context.Context, topic, result string)
	RecordCarrierCall(ctx context.Context, operation string, d time.Duration, err error)
}

type nopMetrics struct{}

func (nopMetrics) RecordQuote(context.Context, string) {}
func (nopMetrics) RecordShipment(context.Context, string, string) {}
func (nopMetrics) RecordWebhook(context.Context, string, string) {}
func (nopMetrics) RecordCarrierCall(context.Context, string, time.Duration, error) {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
