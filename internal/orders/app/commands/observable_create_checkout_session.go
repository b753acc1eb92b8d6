package commands

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"payment-reconciler/internal/orders/metrics"
	"payment-reconciler/internal/telemetry"
)

type ObservableCreateSessionHandler struct {
	handler CreateSessionHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCreateSessionHandler(handler CreateSessionHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCreateSessionHandler {
	return &ObservableCreateSessionHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCreateSessionHandler) Handle(ctx context.Context, cmd CreateSessionCommand) (*CreateSessionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateSessionCommand.Handle")
	defer span.End()

	start := time.Now()
	result, err := o.handler.Handle(ctx, cmd)
	duration := time.Since(start).Seconds()

	o.metrics.RecordSessionCreationDuration(ctx, duration)
	o.metrics.RecordSessionCreated(ctx, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to create checkout session",
			"error", err,
			"order_id", cmd.OrderID,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", cmd.OrderID),
		attribute.String("session.id", result.SessionID),
	)

	o.logger.InfoContext(ctx, "checkout session created",
		"order_id", cmd.OrderID,
		"session_id", result.SessionID,
	)

	telemetry.SetSpanSuccess(span)
	return result, nil
}
