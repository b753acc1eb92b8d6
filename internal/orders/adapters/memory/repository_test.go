package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	idemmemory "payment-reconciler/internal/idempotency/memory"
	"payment-reconciler/internal/orders/adapters/memory"
	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/ports"
)

func newRepository() (*memory.Repository, *idemmemory.Store) {
	ledger := idemmemory.NewStore()
	return memory.NewRepository(ledger), ledger
}

func sampleOrder(id, ownerID string) domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:          id,
		OwnerID:     ownerID,
		ItemID:      "item-1",
		AmountCents: 4999,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRepository_GetByID(t *testing.T) {
	repo, _ := newRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, sampleOrder("order-1", "user-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	order, err := repo.GetByID(ctx, "order-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if order.OwnerID != "user-1" {
		t.Errorf("expected owner user-1, got %s", order.OwnerID)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_SetSessionKey(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the key once", func(t *testing.T) {
		repo, _ := newRepository()
		if err := repo.Create(ctx, sampleOrder("order-1", "user-1")); err != nil {
			t.Fatalf("create: %v", err)
		}

		if err := repo.SetSessionKey(ctx, "order-1", "cs_1"); err != nil {
			t.Fatalf("first write: %v", err)
		}

		if err := repo.SetSessionKey(ctx, "order-1", "cs_2"); !errors.Is(err, ports.ErrSessionExists) {
			t.Errorf("expected ErrSessionExists, got %v", err)
		}

		order, _ := repo.GetByID(ctx, "order-1")
		if order.SessionKey() != "cs_1" {
			t.Errorf("expected key cs_1 to survive, got %q", order.SessionKey())
		}
	})

	t.Run("rejects a key already held by another order", func(t *testing.T) {
		repo, _ := newRepository()
		repo.Create(ctx, sampleOrder("order-1", "user-1"))
		repo.Create(ctx, sampleOrder("order-2", "user-2"))

		if err := repo.SetSessionKey(ctx, "order-1", "cs_1"); err != nil {
			t.Fatalf("first write: %v", err)
		}
		if err := repo.SetSessionKey(ctx, "order-2", "cs_1"); !errors.Is(err, ports.ErrSessionExists) {
			t.Errorf("expected ErrSessionExists, got %v", err)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		repo, _ := newRepository()
		if err := repo.SetSessionKey(ctx, "missing", "cs_1"); !errors.Is(err, ports.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRepository_GetBySessionKey(t *testing.T) {
	repo, _ := newRepository()
	ctx := context.Background()

	repo.Create(ctx, sampleOrder("order-1", "user-1"))
	if err := repo.SetSessionKey(ctx, "order-1", "cs_1"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	order, err := repo.GetBySessionKey(ctx, "cs_1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if order.ID != "order-1" {
		t.Errorf("expected order-1, got %s", order.ID)
	}

	if _, err := repo.GetBySessionKey(ctx, "cs_nobody"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_CompareAndSetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("applies when the expected status matches", func(t *testing.T) {
		repo, _ := newRepository()
		repo.Create(ctx, sampleOrder("order-1", "user-1"))

		if err := repo.CompareAndSetStatus(ctx, "order-1", domain.StatusPending, domain.StatusPaid); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		order, _ := repo.GetByID(ctx, "order-1")
		if order.Status != domain.StatusPaid {
			t.Errorf("expected paid, got %s", order.Status)
		}
	})

	t.Run("rejects when the stored status moved on", func(t *testing.T) {
		repo, _ := newRepository()
		repo.Create(ctx, sampleOrder("order-1", "user-1"))
		repo.CompareAndSetStatus(ctx, "order-1", domain.StatusPending, domain.StatusFailed)

		err := repo.CompareAndSetStatus(ctx, "order-1", domain.StatusPending, domain.StatusPaid)
		if !errors.Is(err, ports.ErrStatusChanged) {
			t.Errorf("expected ErrStatusChanged, got %v", err)
		}

		order, _ := repo.GetByID(ctx, "order-1")
		if order.Status != domain.StatusFailed {
			t.Errorf("expected failed to stick, got %s", order.Status)
		}
	})
}

func TestRepository_List(t *testing.T) {
	repo, _ := newRepository()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		order := sampleOrder(fmt.Sprintf("order-%d", i), "user-1")
		order.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		repo.Create(ctx, order)
	}
	other := sampleOrder("order-other", "user-2")
	repo.Create(ctx, other)

	t.Run("filters by owner", func(t *testing.T) {
		orders, err := repo.List(ctx, ports.ListFilter{OwnerID: "user-1"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(orders) != 5 {
			t.Fatalf("expected 5 orders, got %d", len(orders))
		}
		// Newest first.
		if orders[0].ID != "order-4" {
			t.Errorf("expected order-4 first, got %s", orders[0].ID)
		}
	})

	t.Run("filters by status", func(t *testing.T) {
		repo.CompareAndSetStatus(ctx, "order-0", domain.StatusPending, domain.StatusPaid)
		paid := domain.StatusPaid
		orders, err := repo.List(ctx, ports.ListFilter{OwnerID: "user-1", Status: &paid})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(orders) != 1 || orders[0].ID != "order-0" {
			t.Errorf("expected only order-0, got %v", orders)
		}
	})

	t.Run("paginates", func(t *testing.T) {
		orders, err := repo.List(ctx, ports.ListFilter{OwnerID: "user-1", Page: 2, PageSize: 2})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(orders) != 2 {
			t.Errorf("expected 2 orders on page 2, got %d", len(orders))
		}

		empty, err := repo.List(ctx, ports.ListFilter{OwnerID: "user-1", Page: 10, PageSize: 2})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("expected empty page, got %d orders", len(empty))
		}
	})
}

func TestRepository_ApplyTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("applies and records the event", func(t *testing.T) {
		repo, ledger := newRepository()
		repo.Create(ctx, sampleOrder("order-1", "user-1"))

		result, err := repo.ApplyTransition(ctx, "evt-1", "order-1", domain.StatusPending, domain.StatusPaid)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if result != ports.TransitionApplied {
			t.Errorf("expected TransitionApplied, got %d", result)
		}

		seen, _ := ledger.Seen(ctx, "evt-1")
		if !seen {
			t.Error("expected evt-1 in the ledger")
		}
	})

	t.Run("duplicate event id short-circuits", func(t *testing.T) {
		repo, _ := newRepository()
		repo.Create(ctx, sampleOrder("order-1", "user-1"))

		if _, err := repo.ApplyTransition(ctx, "evt-1", "order-1", domain.StatusPending, domain.StatusPaid); err != nil {
			t.Fatalf("first transition: %v", err)
		}

		result, err := repo.ApplyTransition(ctx, "evt-1", "order-1", domain.StatusPending, domain.StatusPaid)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if result != ports.TransitionDuplicateEvent {
			t.Errorf("expected TransitionDuplicateEvent, got %d", result)
		}
	})

	t.Run("status mismatch rolls the reservation back", func(t *testing.T) {
		repo, ledger := newRepository()
		repo.Create(ctx, sampleOrder("order-1", "user-1"))
		repo.CompareAndSetStatus(ctx, "order-1", domain.StatusPending, domain.StatusFailed)

		result, err := repo.ApplyTransition(ctx, "evt-1", "order-1", domain.StatusPending, domain.StatusPaid)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if result != ports.TransitionStatusMismatch {
			t.Errorf("expected TransitionStatusMismatch, got %d", result)
		}

		seen, _ := ledger.Seen(ctx, "evt-1")
		if seen {
			t.Error("mismatched transition must not keep the reservation")
		}
	})

	t.Run("concurrent deliveries elect one winner", func(t *testing.T) {
		repo, _ := newRepository()
		repo.Create(ctx, sampleOrder("order-1", "user-1"))

		const workers = 16
		results := make([]ports.TransitionResult, workers)
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(i int) {
				defer wg.Done()
				result, err := repo.ApplyTransition(ctx, fmt.Sprintf("evt-%d", i), "order-1", domain.StatusPending, domain.StatusPaid)
				if err != nil {
					t.Errorf("worker %d: %v", i, err)
					return
				}
				results[i] = result
			}(i)
		}
		wg.Wait()

		applied := 0
		for _, result := range results {
			if result == ports.TransitionApplied {
				applied++
			}
		}
		if applied != 1 {
			t.Errorf("expected exactly one applied transition, got %d", applied)
		}

		order, _ := repo.GetByID(ctx, "order-1")
		if order.Status != domain.StatusPaid {
			t.Errorf("expected paid, got %s", order.Status)
		}
	})
}
