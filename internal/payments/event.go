package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Event types this subsystem reconciles. Providers send many more; anything
// else is acknowledged and ignored.
const (
	EventCheckoutCompleted = "checkout_completed"
	EventPaymentFailed     = "payment_failed"
)

// Event is a decoded provider notification. ID is the provider-assigned
// event identifier used for idempotent processing; SessionID correlates the
// event back to an order.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	SessionID   string `json:"session_id"`
	OrderID     string `json:"order_id,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
}

// ErrMalformedEvent is returned when a payload cannot be decoded into an
// event. It is terminal for the delivery and must not be retried.
var ErrMalformedEvent = errors.New("malformed event payload")

// DecodeEvent parses a raw notification body. Callers must verify the
// payload's signature first; this function never runs on unauthenticated bytes.
func DecodeEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if strings.TrimSpace(ev.ID) == "" {
		return nil, fmt.Errorf("%w: missing event id", ErrMalformedEvent)
	}
	if strings.TrimSpace(ev.Type) == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}
	return &ev, nil
}

// Relevant reports whether the event type affects order state at all.
func (e Event) Relevant() bool {
	return e.Type == EventCheckoutCompleted || e.Type == EventPaymentFailed
}
