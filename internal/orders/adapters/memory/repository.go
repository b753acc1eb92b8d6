package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	idemmemory "payment-reconciler/internal/idempotency/memory"
	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/ports"
)

// Repository provides an in-memory store useful for local development and
// tests. The mutex stands in for the row-level atomicity Postgres gives the
// real adapter.
type Repository struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	sessions map[string]string
	ledger   *idemmemory.Store
}

// NewRepository constructs a new in-memory repository sharing the given ledger.
func NewRepository(ledger *idemmemory.Store) *Repository {
	return &Repository{
		orders:   make(map[string]domain.Order),
		sessions: make(map[string]string),
		ledger:   ledger,
	}
}

// Create stores a new order instance.
func (r *Repository) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	if key := order.SessionKey(); key != "" {
		r.sessions[key] = order.ID
	}
	return nil
}

// GetByID fetches a single order by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := order
	return &copy, nil
}

// GetBySessionKey fetches the order correlated with a checkout session.
func (r *Repository) GetBySessionKey(_ context.Context, sessionKey string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.sessions[sessionKey]
	if !ok {
		return nil, ports.ErrNotFound
	}
	order := r.orders[id]
	copy := order
	return &copy, nil
}

// List returns orders respecting the provided filter. Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.OwnerID != "" && order.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Order{}, nil
	}

	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}

	slice := make([]domain.Order, end-start)
	copy(slice, result[start:end])

	return slice, nil
}

// SetSessionKey records the checkout session key; the key is write-once.
func (r *Repository) SetSessionKey(_ context.Context, id string, sessionKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	if order.CheckoutSessionID != nil {
		return ports.ErrSessionExists
	}
	if _, taken := r.sessions[sessionKey]; taken {
		return ports.ErrSessionExists
	}

	key := sessionKey
	order.CheckoutSessionID = &key
	order.UpdatedAt = time.Now().UTC()
	r.orders[id] = order
	r.sessions[sessionKey] = id
	return nil
}

// CompareAndSetStatus transitions the order only when the stored status
// matches the expected one.
func (r *Repository) CompareAndSetStatus(_ context.Context, id string, expected, next domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.casLocked(id, expected, next)
}

func (r *Repository) casLocked(id string, expected, next domain.OrderStatus) error {
	order, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	if order.Status != expected {
		return ports.ErrStatusChanged
	}

	order.Status = next
	order.UpdatedAt = time.Now().UTC()
	r.orders[id] = order
	return nil
}

// ApplyTransition performs the ledger reservation and the status change under
// one lock, matching the single-transaction behavior of the Postgres adapter.
func (r *Repository) ApplyTransition(ctx context.Context, eventID, orderID string, expected, next domain.OrderStatus) (ports.TransitionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reserved, err := r.ledger.Reserve(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if !reserved {
		return ports.TransitionDuplicateEvent, nil
	}

	if err := r.casLocked(orderID, expected, next); err != nil {
		r.ledger.Forget(eventID)
		return ports.TransitionStatusMismatch, nil
	}

	return ports.TransitionApplied, nil
}
