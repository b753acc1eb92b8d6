package ports

import (
	"context"
	"errors"

	"payment-reconciler/internal/orders/domain"
)

// OrderRepository exposes persistence operations required by the application layer.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetBySessionKey(ctx context.Context, sessionKey string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)

	// SetSessionKey records the checkout session key for an order. The key is
	// write-once: a second call for the same order fails with ErrSessionExists,
	// and a key already used by another order fails with ErrSessionExists too.
	SetSessionKey(ctx context.Context, id string, sessionKey string) error

	// CompareAndSetStatus transitions an order from expected to next. A stored
	// status that differs from expected fails with ErrStatusChanged rather
	// than silently succeeding; this is what makes the transition race-safe.
	CompareAndSetStatus(ctx context.Context, id string, expected, next domain.OrderStatus) error

	// ApplyTransition reserves eventID in the idempotency ledger and performs
	// the status compare-and-set as one atomic step, so a crash between the
	// two cannot leave the event half-processed.
	ApplyTransition(ctx context.Context, eventID, orderID string, expected, next domain.OrderStatus) (TransitionResult, error)
}

// TransitionResult reports the outcome of an atomic ledger-reserve + CAS pair.
type TransitionResult int

const (
	// TransitionApplied means the event was newly reserved and the status flipped.
	TransitionApplied TransitionResult = iota
	// TransitionDuplicateEvent means the event id was already in the ledger;
	// no mutation happened.
	TransitionDuplicateEvent
	// TransitionStatusMismatch means the order was not in the expected status;
	// no mutation happened and no ledger entry was kept.
	TransitionStatusMismatch
)

// ListFilter narrows list queries by owner, status and pagination.
type ListFilter struct {
	OwnerID  string
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrForbidden is returned when the caller does not own the order.
	ErrForbidden = errors.New("order belongs to another user")
	// ErrAlreadySettled is returned when an operation requires a pending order
	// but the order is in a terminal state.
	ErrAlreadySettled = errors.New("order already settled")
	// ErrSessionExists is returned when a checkout session key is already
	// recorded for the order, or the key is taken by another order.
	ErrSessionExists = errors.New("checkout session already exists")
	// ErrStatusChanged is returned by CompareAndSetStatus when the stored
	// status does not match the expected one.
	ErrStatusChanged = errors.New("order status changed concurrently")
	// ErrUpstreamUnavailable is returned when the payment provider cannot be
	// reached; the caller may retry and the order is untouched.
	ErrUpstreamUnavailable = errors.New("payment provider unavailable")
)
