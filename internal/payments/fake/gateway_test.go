package fake_test

import (
	"context"
	"strings"
	"testing"

	"payment-reconciler/internal/payments"
	"payment-reconciler/internal/payments/fake"
)

func TestGatewayCreateSession(t *testing.T) {
	gateway := fake.NewGateway("https://pay.example")
	ctx := context.Background()

	session, err := gateway.CreateSession(ctx, payments.SessionRequest{OrderID: "order-1", AmountCents: 4999})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.HasPrefix(session.ID, "cs_") {
		t.Errorf("expected session id with cs_ prefix, got %s", session.ID)
	}
	if !strings.HasPrefix(session.RedirectURL, "https://pay.example/pay/") {
		t.Errorf("unexpected redirect url %s", session.RedirectURL)
	}

	orderID, ok := gateway.OrderID(session.ID)
	if !ok || orderID != "order-1" {
		t.Errorf("expected session to map back to order-1, got %q/%v", orderID, ok)
	}

	if _, ok := gateway.OrderID("cs_nobody"); ok {
		t.Error("expected unknown session to be unmapped")
	}

	second, err := gateway.CreateSession(ctx, payments.SessionRequest{OrderID: "order-2"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if second.ID == session.ID {
		t.Error("expected distinct session ids")
	}
}

func TestGatewayFail(t *testing.T) {
	gateway := fake.NewGateway("https://pay.example")
	gateway.Fail = true

	if _, err := gateway.CreateSession(context.Background(), payments.SessionRequest{OrderID: "order-1"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}
