package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"payment-reconciler/internal/idempotency/memory"
)

func TestStore_Reserve(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	reserved, err := store.Reserve(ctx, "evt-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !reserved {
		t.Error("expected first reservation to succeed")
	}

	reserved, err = store.Reserve(ctx, "evt-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if reserved {
		t.Error("expected second reservation to be rejected")
	}
}

func TestStore_Seen(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	seen, err := store.Seen(ctx, "evt-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if seen {
		t.Error("expected unreserved event to be unseen")
	}

	store.Reserve(ctx, "evt-1")

	seen, err = store.Seen(ctx, "evt-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !seen {
		t.Error("expected reserved event to be seen")
	}
}

func TestStore_Forget(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	store.Reserve(ctx, "evt-1")
	store.Forget("evt-1")

	reserved, err := store.Reserve(ctx, "evt-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !reserved {
		t.Error("expected reservation to succeed after forget")
	}
}

func TestStore_ConcurrentReserve(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	const workers = 32
	wins := make([]bool, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			reserved, err := store.Reserve(ctx, "evt-contended")
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			wins[i] = reserved
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly one winner, got %d", winners)
	}

	// Unrelated ids are unaffected by contention on another id.
	for i := 0; i < 3; i++ {
		reserved, err := store.Reserve(ctx, fmt.Sprintf("evt-%d", i))
		if err != nil || !reserved {
			t.Errorf("expected evt-%d reservation to succeed, got %v/%v", i, reserved, err)
		}
	}
}
