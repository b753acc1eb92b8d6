package ports

import (
	"context"
	"errors"
)

// CatalogItem is the slice of catalog data order creation needs: the current
// price and whether the item can still be purchased.
type CatalogItem struct {
	ID         string
	Name       string
	PriceCents int64
	Active     bool
}

// Catalog exposes read access to the product catalog.
type Catalog interface {
	GetItem(ctx context.Context, id string) (*CatalogItem, error)
}

var (
	// ErrItemNotFound is returned when the requested catalog item does not exist.
	ErrItemNotFound = errors.New("catalog item not found")
	// ErrItemUnavailable is returned when the item exists but is not purchasable.
	ErrItemUnavailable = errors.New("catalog item not available")
)
