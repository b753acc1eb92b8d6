package commands

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/metrics"
	"payment-reconciler/internal/telemetry"
)

type ObservableCreateOrderHandler struct {
	handler CreateOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCreateOrderHandler(handler CreateOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCreateOrderHandler {
	return &ObservableCreateOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	defer span.End()

	order, err := o.handler.Handle(ctx, cmd)
	o.metrics.RecordOrderCreated(ctx, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to create order",
			"error", err,
			"owner_id", cmd.OwnerID,
			"item_id", cmd.ItemID,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("order.item_id", order.ItemID),
		attribute.Int64("order.amount_cents", order.AmountCents),
	)

	o.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"owner_id", order.OwnerID,
		"item_id", order.ItemID,
		"amount_cents", order.AmountCents,
	)

	telemetry.SetSpanSuccess(span)
	return order, nil
}
