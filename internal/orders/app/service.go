package app

import (
	"context"
	"log/slog"

	"payment-reconciler/internal/orders/app/commands"
	"payment-reconciler/internal/orders/app/queries"
	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/metrics"
	"payment-reconciler/internal/orders/ports"
	"payment-reconciler/internal/payments"
)

// Service bundles use cases for handling orders via the API and the webhook
// endpoint.
type Service struct {
	createOrderHandler   commands.CreateOrderHandler
	createSessionHandler commands.CreateSessionHandler
	processEventHandler  commands.ProcessEventHandler
	getOrderHandler      *queries.GetOrderQueryHandler
	listOrdersHandler    *queries.ListOrdersQueryHandler
}

// NewService wires required dependencies, decorating each command handler
// with logging, tracing and metrics.
func NewService(
	repo ports.OrderRepository,
	ledger ports.EventLedger,
	catalog ports.Catalog,
	provider payments.Provider,
	events ports.EventBus,
	sessionOpts commands.SessionOptions,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	createOrder := commands.NewCreateOrderCommandHandler(repo, catalog, events)
	createSession := commands.NewCreateSessionCommandHandler(repo, provider, sessionOpts)
	processEvent := commands.NewProcessEventCommandHandler(repo, ledger, events)

	return &Service{
		createOrderHandler:   commands.NewObservableCreateOrderHandler(createOrder, logger, metrics),
		createSessionHandler: commands.NewObservableCreateSessionHandler(createSession, logger, metrics),
		processEventHandler:  commands.NewObservableProcessEventHandler(processEvent, logger, metrics),
		getOrderHandler:      queries.NewGetOrderQueryHandler(repo),
		listOrdersHandler:    queries.NewListOrdersQueryHandler(repo),
	}
}

// CreateOrderInput captures payload for creating an order.
type CreateOrderInput struct {
	ItemID string `json:"item_id"`
}

// CreateOrder creates a pending order for the caller.
func (s *Service) CreateOrder(ctx context.Context, callerID string, input CreateOrderInput) (*domain.Order, error) {
	return s.createOrderHandler.Handle(ctx, commands.CreateOrderCommand{
		OwnerID: callerID,
		ItemID:  input.ItemID,
	})
}

// CreateCheckoutSession opens a hosted payment session for an order.
func (s *Service) CreateCheckoutSession(ctx context.Context, callerID, orderID string) (*commands.CreateSessionResult, error) {
	return s.createSessionHandler.Handle(ctx, commands.CreateSessionCommand{
		OrderID:  orderID,
		CallerID: callerID,
	})
}

// ProcessEvent reconciles an authenticated provider event.
func (s *Service) ProcessEvent(ctx context.Context, event payments.Event) (commands.Outcome, error) {
	return s.processEventHandler.Handle(ctx, commands.ProcessEventCommand{Event: event})
}

// GetOrder retrieves an order owned by the caller.
func (s *Service) GetOrder(ctx context.Context, callerID, orderID string) (*domain.Order, error) {
	return s.getOrderHandler.Handle(ctx, queries.GetOrderQuery{
		OrderID:  orderID,
		CallerID: callerID,
	})
}

// ListOrders returns the caller's orders.
func (s *Service) ListOrders(ctx context.Context, query queries.ListOrdersQuery) ([]domain.Order, error) {
	return s.listOrdersHandler.Handle(ctx, query)
}
