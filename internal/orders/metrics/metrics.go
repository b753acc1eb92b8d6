package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersCreatedTotal      metric.Int64Counter
	sessionsCreatedTotal    metric.Int64Counter
	sessionCreationDuration metric.Float64Histogram
	eventsProcessedTotal    metric.Int64Counter
	eventProcessingDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.sessionsCreatedTotal, err = meter.Int64Counter(
		"checkout_sessions_created_total",
		metric.WithDescription("Total number of checkout sessions created"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkout_sessions_created_total counter: %w", err)
	}

	m.sessionCreationDuration, err = meter.Float64Histogram(
		"checkout_session_creation_duration_seconds",
		metric.WithDescription("Duration of checkout session creation including the provider call"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkout_session_creation_duration histogram: %w", err)
	}

	m.eventsProcessedTotal, err = meter.Int64Counter(
		"payment_events_processed_total",
		metric.WithDescription("Total number of payment provider events processed, by outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payment_events_processed_total counter: %w", err)
	}

	m.eventProcessingDuration, err = meter.Float64Histogram(
		"payment_event_processing_duration_seconds",
		metric.WithDescription("Duration of payment event reconciliation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payment_event_processing_duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", statusLabel(success)),
	))
}

func (m *Metrics) RecordSessionCreated(ctx context.Context, success bool) {
	m.sessionsCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", statusLabel(success)),
	))
}

func (m *Metrics) RecordSessionCreationDuration(ctx context.Context, durationSeconds float64) {
	m.sessionCreationDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordEventProcessed(ctx context.Context, outcome string) {
	m.eventsProcessedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordEventProcessingDuration(ctx context.Context, durationSeconds float64) {
	m.eventProcessingDuration.Record(ctx, durationSeconds)
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
