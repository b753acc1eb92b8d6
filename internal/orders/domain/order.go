package domain

import (
	"errors"
	"strings"
	"time"
)

// OrderStatus captures the lifecycle of an order in the system.
type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusPaid    OrderStatus = "paid"
	StatusFailed  OrderStatus = "failed"
)

// ErrInvalidTransition is returned when a status change would violate the
// forward-only order lifecycle.
var ErrInvalidTransition = errors.New("invalid order status transition")

// Order represents a purchase of a single catalog item. AmountCents is a
// price snapshot taken at creation time; later catalog changes do not touch
// it. CheckoutSessionID is set exactly once when a checkout session is
// opened and is the only correlation between provider events and orders.
type Order struct {
	ID                string      `json:"id"`
	OwnerID           string      `json:"owner_id"`
	ItemID            string      `json:"item_id"`
	AmountCents       int64       `json:"amount_cents"`
	Status            OrderStatus `json:"status"`
	CheckoutSessionID *string     `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Validate ensures the order adheres to business constraints.
func (o Order) Validate() error {
	if strings.TrimSpace(o.OwnerID) == "" {
		return errors.New("owner_id is required")
	}
	if strings.TrimSpace(o.ItemID) == "" {
		return errors.New("item_id is required")
	}
	if o.AmountCents <= 0 {
		return errors.New("amount_cents must be positive")
	}
	return nil
}

// IsTerminal indicates whether the order is in a terminal state.
func (o Order) IsTerminal() bool {
	switch o.Status {
	case StatusPaid, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from the current status to next is
// legal. The lifecycle is forward-only: pending may become paid or failed,
// and terminal states never change.
func (o Order) CanTransitionTo(next OrderStatus) bool {
	if o.Status != StatusPending {
		return false
	}
	return next == StatusPaid || next == StatusFailed
}

// SessionKey returns the checkout session id or the empty string.
func (o Order) SessionKey() string {
	if o.CheckoutSessionID == nil {
		return ""
	}
	return *o.CheckoutSessionID
}
