package memory

import (
	"context"
	"sync"

	"payment-reconciler/internal/orders/ports"
)

// Catalog is an in-memory item catalog for local development and tests.
type Catalog struct {
	mu    sync.RWMutex
	items map[string]ports.CatalogItem
}

// NewCatalog creates a catalog seeded with the given items.
func NewCatalog(items ...ports.CatalogItem) *Catalog {
	c := &Catalog{items: make(map[string]ports.CatalogItem)}
	for _, item := range items {
		c.items[item.ID] = item
	}
	return c
}

// Put adds or replaces an item.
func (c *Catalog) Put(item ports.CatalogItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ID] = item
}

// GetItem returns the item or ports.ErrItemNotFound.
func (c *Catalog) GetItem(_ context.Context, id string) (*ports.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return nil, ports.ErrItemNotFound
	}
	copy := item
	return &copy, nil
}
