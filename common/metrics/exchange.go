package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Exchange outcome labels.
const (
	StatusSuccess        = "success"
	StatusProviderError  = "provider_error"
	StatusDecodeError    = "decode_error"
	StatusTransportError = "transport_error"
)

// ExchangeMetrics records token endpoint round trips.
type ExchangeMetrics interface {
	RecordExchange(ctx context.Context, grantType, status string, duration time.Duration)
}

type exchangeMetrics struct {
	counter metric.Int64Counter
	histo   metric.Float64Histogram
}

// NewExchangeMetrics creates the exchange counter and duration histogram.
func NewExchangeMetrics(meterProvider metric.MeterProvider, namespace string) (ExchangeMetrics, error) {
	meter := meterProvider.Meter(namespace)

	counter, err := meter.Int64Counter(
		fmt.Sprintf("%s_token_exchanges_total", namespace),
		metric.WithDescription("Total number of token endpoint exchanges"),
		metric.WithUnit("{exchange}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange counter: %w", err)
	}

	histo, err := meter.Float64Histogram(
		fmt.Sprintf("%s_token_exchange_duration_seconds", namespace),
		metric.WithDescription("Duration of token endpoint exchanges in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange histogram: %w", err)
	}

	return &exchangeMetrics{counter: counter, histo: histo}, nil
}

func (e *exchangeMetrics) RecordExchange(ctx context.Context, grantType, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("grant_type", grantType),
		attribute.String("status", status),
	)
	e.counter.Add(ctx, 1, attrs)
	e.histo.Record(ctx, duration.Seconds(), attrs)
}

// NoOpExchangeMetrics is used when metrics are disabled.
type NoOpExchangeMetrics struct{}

func (NoOpExchangeMetrics) RecordExchange(context.Context, string, string, time.Duration) {}
