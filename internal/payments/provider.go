package payments

import "context"

// SessionRequest captures the information required to open a hosted checkout
// session with a provider. OrderID travels in provider metadata and is echoed
// back on webhook events; it is always set explicitly, never inferred.
type SessionRequest struct {
	OrderID     string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

// Session is the minimal information returned by a provider when a hosted
// checkout session is created.
type Session struct {
	ID          string
	RedirectURL string
}

// Provider abstracts the operations required from an upstream payment provider.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}
