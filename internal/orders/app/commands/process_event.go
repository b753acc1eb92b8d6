package commands

import (
	"context"
	"errors"
	"fmt"

	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/ports"
	"payment-reconciler/internal/payments"
)

// Outcome classifies successful event processing. All outcomes are
// acknowledged to the provider; only errors make a delivery fail.
type Outcome int

const (
	// OutcomeApplied means the order transitioned to a terminal state.
	OutcomeApplied Outcome = iota
	// OutcomeAlreadyApplied means a duplicate or raced delivery found the
	// work already done; nothing was mutated.
	OutcomeAlreadyApplied
	// OutcomeIgnored means the event type is of no interest to this system.
	OutcomeIgnored
	// OutcomeUnknownSession means no order matches the event's session key,
	// e.g. an event from a different environment. Logged and discarded.
	OutcomeUnknownSession
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeAlreadyApplied:
		return "already_applied"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeUnknownSession:
		return "unknown_session"
	default:
		return "unknown"
	}
}

type ProcessEventCommand struct {
	Event payments.Event
}

type ProcessEventHandler interface {
	Handle(ctx context.Context, cmd ProcessEventCommand) (Outcome, error)
}

type ProcessEventCommandHandler struct {
	repo   ports.OrderRepository
	ledger ports.EventLedger
	events ports.EventBus
}

func NewProcessEventCommandHandler(
	repo ports.OrderRepository,
	ledger ports.EventLedger,
	events ports.EventBus,
) *ProcessEventCommandHandler {
	return &ProcessEventCommandHandler{
		repo:   repo,
		ledger: ledger,
		events: events,
	}
}

// Handle reconciles an authenticated provider event with the order it
// references. The ledger reservation and the status compare-and-set are one
// atomic step, so the handler is safe to re-invoke with the same event under
// at-least-once, out-of-order delivery.
//
// A delivery that contradicts a terminal state (a failure after a recorded
// success, or the reverse) returns ports.ErrAlreadySettled: the existing
// state wins, and the caller logs the anomaly for investigation.
func (h *ProcessEventCommandHandler) Handle(ctx context.Context, cmd ProcessEventCommand) (Outcome, error) {
	ev := cmd.Event

	if !ev.Relevant() {
		return OutcomeIgnored, nil
	}

	var target domain.OrderStatus
	switch ev.Type {
	case payments.EventCheckoutCompleted:
		target = domain.StatusPaid
	case payments.EventPaymentFailed:
		target = domain.StatusFailed
	}

	if ev.Data.SessionID == "" {
		return 0, fmt.Errorf("%w: event %s carries no session id", payments.ErrMalformedEvent, ev.ID)
	}

	// Fast path for redeliveries: an event already in the ledger was fully
	// processed, so skip the lookup and transition entirely.
	seen, err := h.ledger.Seen(ctx, ev.ID)
	if err != nil {
		return 0, err
	}
	if seen {
		return OutcomeAlreadyApplied, nil
	}

	order, err := h.repo.GetBySessionKey(ctx, ev.Data.SessionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return OutcomeUnknownSession, nil
		}
		return 0, err
	}

	result, err := h.repo.ApplyTransition(ctx, ev.ID, order.ID, domain.StatusPending, target)
	if err != nil {
		return 0, err
	}

	switch result {
	case ports.TransitionApplied:
		h.publish(ctx, order.ID, target)
		return OutcomeApplied, nil

	case ports.TransitionDuplicateEvent:
		return OutcomeAlreadyApplied, nil

	case ports.TransitionStatusMismatch:
		current, err := h.repo.GetByID(ctx, order.ID)
		if err != nil {
			return 0, err
		}
		if current.Status == target {
			// A concurrent delivery won the race to the same terminal state.
			return OutcomeAlreadyApplied, nil
		}
		return 0, fmt.Errorf("%w: order %s is %s, event %s wants %s",
			ports.ErrAlreadySettled, order.ID, current.Status, ev.ID, target)

	default:
		return 0, fmt.Errorf("unexpected transition result %d for event %s", result, ev.ID)
	}
}

func (h *ProcessEventCommandHandler) publish(ctx context.Context, orderID string, status domain.OrderStatus) {
	// Lifecycle notifications are best-effort; reconciliation already committed.
	if status == domain.StatusPaid {
		_ = h.events.PublishOrderPaid(ctx, orderID)
		return
	}
	_ = h.events.PublishOrderFailed(ctx, orderID)
}
