package queries

import (
	"context"
	"errors"
	"strings"

	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/ports"
)

// ListOrdersQuery retrieves the caller's order history, optionally filtered
// by status.
type ListOrdersQuery struct {
	CallerID string
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

func (q ListOrdersQuery) Validate() error {
	if strings.TrimSpace(q.CallerID) == "" {
		return errors.New("caller_id is required")
	}
	return nil
}

type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	return h.repo.List(ctx, ports.ListFilter{
		OwnerID:  query.CallerID,
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
}
