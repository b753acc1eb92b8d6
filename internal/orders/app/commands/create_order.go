package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/ports"
)

type CreateOrderCommand struct {
	OwnerID string
	ItemID  string
}

func (c CreateOrderCommand) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return errors.New("owner_id is required")
	}
	if strings.TrimSpace(c.ItemID) == "" {
		return errors.New("item_id is required")
	}
	return nil
}

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

type CreateOrderCommandHandler struct {
	repo    ports.OrderRepository
	catalog ports.Catalog
	events  ports.EventBus
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	catalog ports.Catalog,
	events ports.EventBus,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		repo:    repo,
		catalog: catalog,
		events:  events,
	}
}

// Handle creates a pending order for a catalog item, snapshotting the item's
// current price into the order. Repeated calls create repeated orders; there
// is no implicit deduplication here.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	item, err := h.catalog.GetItem(ctx, cmd.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, fmt.Errorf("%w: %s", ports.ErrItemUnavailable, item.ID)
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:          uuid.NewString(),
		OwnerID:     cmd.OwnerID,
		ItemID:      item.ID,
		AmountCents: item.PriceCents,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := h.events.PublishOrderCreated(ctx, order.ID); err != nil {
		return &order, fmt.Errorf("order saved but failed to publish event: %w", err)
	}

	return &order, nil
}
