package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"payment-reconciler/internal/payments"
)

// Gateway is an in-process payment provider used in dev mode and tests. It
// hands out session ids and remembers the order each session belongs to so
// tests can fabricate matching webhook deliveries.
type Gateway struct {
	mu       sync.RWMutex
	sessions map[string]payments.SessionRequest
	baseURL  string

	// Fail forces CreateSession to error, simulating provider downtime.
	Fail bool
}

// NewGateway returns a fake provider whose redirect URLs point at baseURL.
func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		sessions: make(map[string]payments.SessionRequest),
		baseURL:  baseURL,
	}
}

func (g *Gateway) CreateSession(_ context.Context, req payments.SessionRequest) (*payments.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Fail {
		return nil, fmt.Errorf("fake gateway: provider down")
	}

	id := "cs_" + uuid.NewString()
	g.sessions[id] = req

	return &payments.Session{
		ID:          id,
		RedirectURL: fmt.Sprintf("%s/pay/%s", g.baseURL, id),
	}, nil
}

// OrderID returns the order a session was opened for, if the session exists.
func (g *Gateway) OrderID(sessionID string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	req, ok := g.sessions[sessionID]
	return req.OrderID, ok
}
