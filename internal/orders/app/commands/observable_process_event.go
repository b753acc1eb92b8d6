package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"payment-reconciler/internal/orders/metrics"
	"payment-reconciler/internal/orders/ports"
	"payment-reconciler/internal/telemetry"
)

type ObservableProcessEventHandler struct {
	handler ProcessEventHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableProcessEventHandler(handler ProcessEventHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableProcessEventHandler {
	return &ObservableProcessEventHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableProcessEventHandler) Handle(ctx context.Context, cmd ProcessEventCommand) (Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "ProcessEventCommand.Handle")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("event.id", cmd.Event.ID),
		attribute.String("event.type", cmd.Event.Type),
	)

	start := time.Now()
	outcome, err := o.handler.Handle(ctx, cmd)
	duration := time.Since(start).Seconds()

	o.metrics.RecordEventProcessingDuration(ctx, duration)

	if err != nil {
		o.metrics.RecordEventProcessed(ctx, "error")
		telemetry.RecordSpanError(span, err)

		if errors.Is(err, ports.ErrAlreadySettled) {
			// Terminal-state contradiction: the processor sent an outcome that
			// conflicts with one already recorded. The recorded state stands;
			// this log line is the alert channel.
			o.logger.ErrorContext(ctx, "conflicting payment event for settled order",
				"error", err,
				"event_id", cmd.Event.ID,
				"event_type", cmd.Event.Type,
				"session_id", cmd.Event.Data.SessionID,
			)
			return outcome, err
		}

		o.logger.ErrorContext(ctx, "failed to process payment event",
			"error", err,
			"event_id", cmd.Event.ID,
			"event_type", cmd.Event.Type,
		)
		return outcome, err
	}

	o.metrics.RecordEventProcessed(ctx, outcome.String())
	telemetry.AddSpanAttributes(span, attribute.String("event.outcome", outcome.String()))

	switch outcome {
	case OutcomeUnknownSession:
		o.logger.WarnContext(ctx, "payment event references unknown session",
			"event_id", cmd.Event.ID,
			"session_id", cmd.Event.Data.SessionID,
		)
	case OutcomeIgnored:
		o.logger.DebugContext(ctx, "payment event ignored",
			"event_id", cmd.Event.ID,
			"event_type", cmd.Event.Type,
		)
	default:
		o.logger.InfoContext(ctx, "payment event processed",
			"event_id", cmd.Event.ID,
			"event_type", cmd.Event.Type,
			"outcome", outcome.String(),
		)
	}

	telemetry.SetSpanSuccess(span)
	return outcome, nil
}
