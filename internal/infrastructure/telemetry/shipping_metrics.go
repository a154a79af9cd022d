package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewShippingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ShippingMetrics counts checkout quotes, shipment attempts and webhook
// deliveries, and times outbound carrier calls.
type ShippingMetrics struct {
	quotesTotal      *Counter
	shipmentsTotal   *Counter
	webhooksTotal    *Counter
	carrierCallTimer *Histogram
}

// NewShippingMetrics registers the shipping instruments on meter.
func NewShippingMetrics(meter metric.Meter) (*ShippingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   ShippingMetrics
		err error
	)
	if m.quotesTotal, err = NewCounter(meter,
		"kvikk_rate_quotes_total",
		"Checkout rate quotes by outcome",
		"{quote}",
	); err != nil {
		return nil, err
	}
	if m.shipmentsTotal, err = NewCounter(meter,
		"kvikk_shipments_total",
		"Shipment creation attempts by outcome and service type",
		"{shipment}",
	); err != nil {
		return nil, err
	}
	if m.webhooksTotal, err = NewCounter(meter,
		"kvikk_webhooks_total",
		"Order webhooks handled by topic and result",
		"{webhook}",
	); err != nil {
		return nil, err
	}
	if m.carrierCallTimer, err = NewHistogram(meter, HistogramOpts{
		Name:        "kvikk_carrier_request_duration_seconds",
		Description: "Latency of Kvikk API calls",
		Unit:        "s",
		Boundaries:  ExternalCallBuckets,
	}); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordQuote counts one rate quote.
func (m *ShippingMetrics) RecordQuote(ctx context.Context, outcome string) {
	m.quotesTotal.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordShipment counts one shipment attempt.
func (m *ShippingMetrics) RecordShipment(ctx context.Context, outcome, serviceType string) {
	m.shipmentsTotal.Inc(ctx, AttrOutcome.String(outcome), AttrServiceType.String(serviceType))
}

// RecordWebhook counts one webhook delivery.
func (m *ShippingMetrics) RecordWebhook(ctx context.Context, topic, result string) {
	m.webhooksTotal.Inc(ctx, AttrWebhookTopic.String(topic), AttrResult.String(result))
}

// RecordCarrierCall times one carrier API call.
func (m *ShippingMetrics) RecordCarrierCall(ctx context.Context, operation string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.carrierCallTimer.RecordDuration(ctx, d, AttrOperation.String(operation), AttrOutcome.String(outcome))
}
