package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/ports"
	"payment-reconciler/internal/payments"
)

type CreateSessionCommand struct {
	OrderID  string
	CallerID string
}

func (c CreateSessionCommand) Validate() error {
	if strings.TrimSpace(c.OrderID) == "" {
		return errors.New("order_id is required")
	}
	if strings.TrimSpace(c.CallerID) == "" {
		return errors.New("caller_id is required")
	}
	return nil
}

// CreateSessionResult carries what the client needs to enter the hosted flow.
type CreateSessionResult struct {
	SessionID   string
	RedirectURL string
}

type CreateSessionHandler interface {
	Handle(ctx context.Context, cmd CreateSessionCommand) (*CreateSessionResult, error)
}

// SessionOptions configures outbound session creation.
type SessionOptions struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	// ProviderTimeout bounds the provider call; on timeout the order is left
	// pending with no session key written.
	ProviderTimeout time.Duration
}

type CreateSessionCommandHandler struct {
	repo     ports.OrderRepository
	provider payments.Provider
	opts     SessionOptions
}

func NewCreateSessionCommandHandler(
	repo ports.OrderRepository,
	provider payments.Provider,
	opts SessionOptions,
) *CreateSessionCommandHandler {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 10 * time.Second
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &CreateSessionCommandHandler{
		repo:     repo,
		provider: provider,
		opts:     opts,
	}
}

// Handle opens a hosted checkout session for a pending order owned by the
// caller and persists the provider's session key before returning. The key
// write is the linchpin: losing it would orphan the provider-side session, so
// a failed write surfaces as a retryable error instead of a silent success.
func (h *CreateSessionCommandHandler) Handle(ctx context.Context, cmd CreateSessionCommand) (*CreateSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if order.OwnerID != cmd.CallerID {
		return nil, ports.ErrForbidden
	}
	if order.Status != domain.StatusPending {
		return nil, ports.ErrAlreadySettled
	}
	if order.CheckoutSessionID != nil {
		return nil, ports.ErrSessionExists
	}

	callCtx, cancel := context.WithTimeout(ctx, h.opts.ProviderTimeout)
	defer cancel()

	session, err := h.provider.CreateSession(callCtx, payments.SessionRequest{
		OrderID:     order.ID,
		AmountCents: order.AmountCents,
		Currency:    h.opts.Currency,
		SuccessURL:  h.opts.SuccessURL,
		CancelURL:   h.opts.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrUpstreamUnavailable, err)
	}

	if err := h.repo.SetSessionKey(ctx, order.ID, session.ID); err != nil {
		if errors.Is(err, ports.ErrSessionExists) {
			return nil, err
		}
		return nil, fmt.Errorf("session %s created but key not persisted, retry needed: %w", session.ID, err)
	}

	return &CreateSessionResult{
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
	}, nil
}
