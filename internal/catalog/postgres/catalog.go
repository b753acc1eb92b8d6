package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"payment-reconciler/internal/orders/ports"
)

// Catalog reads item data from the items table.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) GetItem(ctx context.Context, id string) (*ports.CatalogItem, error) {
	query := `
		SELECT id, name, price_cents, active
		FROM items
		WHERE id = $1
	`

	var item ports.CatalogItem
	err := c.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.PriceCents,
		&item.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrItemNotFound
		}
		return nil, fmt.Errorf("select item: %w", err)
	}

	return &item, nil
}
