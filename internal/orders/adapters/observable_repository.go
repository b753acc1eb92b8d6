package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"payment-reconciler/internal/database"
	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/ports"
	"payment-reconciler/internal/telemetry"
)

// ObservableRepository wraps an OrderRepository with spans and query metrics.
type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Create")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("operation", "create"),
	)

	start := time.Now()
	err := r.repo.Create(ctx, order)
	r.metrics.RecordQuery(ctx, "create_order", time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetByID")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "get_by_id"),
	)

	start := time.Now()
	order, err := r.repo.GetByID(ctx, id)
	r.metrics.RecordQuery(ctx, "get_order_by_id", time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return order, nil
}

func (r *ObservableRepository) GetBySessionKey(ctx context.Context, sessionKey string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetBySessionKey")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("session.id", sessionKey),
		attribute.String("operation", "get_by_session_key"),
	)

	start := time.Now()
	order, err := r.repo.GetBySessionKey(ctx, sessionKey)
	r.metrics.RecordQuery(ctx, "get_order_by_session_key", time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return order, nil
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.List")
	defer span.End()

	start := time.Now()
	orders, err := r.repo.List(ctx, filter)
	r.metrics.RecordQuery(ctx, "list_orders", time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("orders.count", len(orders)))
	telemetry.SetSpanSuccess(span)
	return orders, nil
}

func (r *ObservableRepository) SetSessionKey(ctx context.Context, id string, sessionKey string) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.SetSessionKey")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("session.id", sessionKey),
	)

	start := time.Now()
	err := r.repo.SetSessionKey(ctx, id, sessionKey)
	r.metrics.RecordQuery(ctx, "set_session_key", time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (r *ObservableRepository) CompareAndSetStatus(ctx context.Context, id string, expected, next domain.OrderStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.CompareAndSetStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("status.expected", string(expected)),
		attribute.String("status.next", string(next)),
	)

	start := time.Now()
	err := r.repo.CompareAndSetStatus(ctx, id, expected, next)
	r.metrics.RecordQuery(ctx, "compare_and_set_status", time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (r *ObservableRepository) ApplyTransition(ctx context.Context, eventID, orderID string, expected, next domain.OrderStatus) (ports.TransitionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.ApplyTransition")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("event.id", eventID),
		attribute.String("order.id", orderID),
		attribute.String("status.next", string(next)),
	)

	start := time.Now()
	result, err := r.repo.ApplyTransition(ctx, eventID, orderID, expected, next)
	r.metrics.RecordQuery(ctx, "apply_transition", time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return result, err
	}

	telemetry.SetSpanSuccess(span)
	return result, nil
}
