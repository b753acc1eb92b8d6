package commands_test

import (
	"context"
	"errors"
	"testing"

	"payment-reconciler/internal/orders/app/commands"
	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/ports"
	"payment-reconciler/internal/payments"
)

type mockRepository struct {
	createFn          func(ctx context.Context, order domain.Order) error
	getByIDFn         func(ctx context.Context, id string) (*domain.Order, error)
	getBySessionKeyFn func(ctx context.Context, key string) (*domain.Order, error)
	setSessionKeyFn   func(ctx context.Context, id, key string) error
	applyTransitionFn func(ctx context.Context, eventID, orderID string, expected, next domain.OrderStatus) (ports.TransitionResult, error)
}

func (m *mockRepository) Create(ctx context.Context, order domain.Order) error {
	if m.createFn != nil {
		return m.createFn(ctx, order)
	}
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}

func (m *mockRepository) GetBySessionKey(ctx context.Context, key string) (*domain.Order, error) {
	if m.getBySessionKeyFn != nil {
		return m.getBySessionKeyFn(ctx, key)
	}
	return nil, ports.ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockRepository) SetSessionKey(ctx context.Context, id, key string) error {
	if m.setSessionKeyFn != nil {
		return m.setSessionKeyFn(ctx, id, key)
	}
	return nil
}

func (m *mockRepository) CompareAndSetStatus(ctx context.Context, id string, expected, next domain.OrderStatus) error {
	return nil
}

func (m *mockRepository) ApplyTransition(ctx context.Context, eventID, orderID string, expected, next domain.OrderStatus) (ports.TransitionResult, error) {
	if m.applyTransitionFn != nil {
		return m.applyTransitionFn(ctx, eventID, orderID, expected, next)
	}
	return ports.TransitionApplied, nil
}

type mockCatalog struct {
	getItemFn func(ctx context.Context, id string) (*ports.CatalogItem, error)
}

func (m *mockCatalog) GetItem(ctx context.Context, id string) (*ports.CatalogItem, error) {
	if m.getItemFn != nil {
		return m.getItemFn(ctx, id)
	}
	return nil, ports.ErrItemNotFound
}

type mockEventBus struct {
	createdIDs []string
	paidIDs    []string
	failedIDs  []string
}

func (m *mockEventBus) PublishOrderCreated(_ context.Context, orderID string) error {
	m.createdIDs = append(m.createdIDs, orderID)
	return nil
}

func (m *mockEventBus) PublishOrderPaid(_ context.Context, orderID string) error {
	m.paidIDs = append(m.paidIDs, orderID)
	return nil
}

func (m *mockEventBus) PublishOrderFailed(_ context.Context, orderID string) error {
	m.failedIDs = append(m.failedIDs, orderID)
	return nil
}

type mockLedger struct {
	reserveFn func(ctx context.Context, eventID string) (bool, error)
	seenFn    func(ctx context.Context, eventID string) (bool, error)
}

func (m *mockLedger) Reserve(ctx context.Context, eventID string) (bool, error) {
	if m.reserveFn != nil {
		return m.reserveFn(ctx, eventID)
	}
	return true, nil
}

func (m *mockLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	if m.seenFn != nil {
		return m.seenFn(ctx, eventID)
	}
	return false, nil
}

type mockProvider struct {
	createSessionFn func(ctx context.Context, req payments.SessionRequest) (*payments.Session, error)
	calls           int
}

func (m *mockProvider) CreateSession(ctx context.Context, req payments.SessionRequest) (*payments.Session, error) {
	m.calls++
	if m.createSessionFn != nil {
		return m.createSessionFn(ctx, req)
	}
	return &payments.Session{ID: "cs_mock", RedirectURL: "https://pay.example/cs_mock"}, nil
}

func activeItem() *ports.CatalogItem {
	return &ports.CatalogItem{ID: "item-1", Name: "Widget", PriceCents: 9999, Active: true}
}

func TestCreateOrder(t *testing.T) {
	t.Run("creates pending order with price snapshot", func(t *testing.T) {
		var created domain.Order
		repo := &mockRepository{
			createFn: func(_ context.Context, order domain.Order) error {
				created = order
				return nil
			},
		}
		catalog := &mockCatalog{
			getItemFn: func(_ context.Context, id string) (*ports.CatalogItem, error) {
				return activeItem(), nil
			},
		}
		events := &mockEventBus{}
		handler := commands.NewCreateOrderCommandHandler(repo, catalog, events)

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			OwnerID: "user-1",
			ItemID:  "item-1",
		})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if order == nil {
			t.Fatal("expected order to be returned, got nil")
		}
		if order.Status != domain.StatusPending {
			t.Errorf("expected status %s, got %s", domain.StatusPending, order.Status)
		}
		if order.AmountCents != 9999 {
			t.Errorf("expected amount snapshot 9999, got %d", order.AmountCents)
		}
		if order.ID == "" {
			t.Error("expected order ID to be generated")
		}
		if created.ID != order.ID {
			t.Errorf("persisted order %q differs from returned %q", created.ID, order.ID)
		}
		if len(events.createdIDs) != 1 || events.createdIDs[0] != order.ID {
			t.Errorf("expected one created event for %s, got %v", order.ID, events.createdIDs)
		}
	})

	t.Run("later catalog price change does not alter the snapshot", func(t *testing.T) {
		price := int64(9999)
		repo := &mockRepository{}
		catalog := &mockCatalog{
			getItemFn: func(_ context.Context, id string) (*ports.CatalogItem, error) {
				return &ports.CatalogItem{ID: id, PriceCents: price, Active: true}, nil
			},
		}
		handler := commands.NewCreateOrderCommandHandler(repo, catalog, &mockEventBus{})

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{OwnerID: "user-1", ItemID: "item-1"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		price = 12000

		if order.AmountCents != 9999 {
			t.Errorf("expected snapshot to stay 9999, got %d", order.AmountCents)
		}
	})

	t.Run("rejects inactive item", func(t *testing.T) {
		repo := &mockRepository{}
		catalog := &mockCatalog{
			getItemFn: func(_ context.Context, id string) (*ports.CatalogItem, error) {
				return &ports.CatalogItem{ID: id, PriceCents: 500, Active: false}, nil
			},
		}
		handler := commands.NewCreateOrderCommandHandler(repo, catalog, &mockEventBus{})

		_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{OwnerID: "user-1", ItemID: "item-1"})
		if !errors.Is(err, ports.ErrItemUnavailable) {
			t.Errorf("expected ErrItemUnavailable, got %v", err)
		}
	})

	t.Run("propagates unknown item", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(&mockRepository{}, &mockCatalog{}, &mockEventBus{})

		_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{OwnerID: "user-1", ItemID: "missing"})
		if !errors.Is(err, ports.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("returns validation error when owner is empty", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(&mockRepository{}, &mockCatalog{}, &mockEventBus{})

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{ItemID: "item-1"})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}
	})

	t.Run("repeated calls create distinct orders", func(t *testing.T) {
		var ids []string
		repo := &mockRepository{
			createFn: func(_ context.Context, order domain.Order) error {
				ids = append(ids, order.ID)
				return nil
			},
		}
		catalog := &mockCatalog{
			getItemFn: func(_ context.Context, id string) (*ports.CatalogItem, error) {
				return activeItem(), nil
			},
		}
		handler := commands.NewCreateOrderCommandHandler(repo, catalog, &mockEventBus{})

		cmd := commands.CreateOrderCommand{OwnerID: "user-1", ItemID: "item-1"}
		for i := 0; i < 2; i++ {
			if _, err := handler.Handle(context.Background(), cmd); err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
		}

		if len(ids) != 2 || ids[0] == ids[1] {
			t.Errorf("expected two distinct orders, got %v", ids)
		}
	})
}
