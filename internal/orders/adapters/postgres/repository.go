package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	idempostgres "payment-reconciler/internal/idempotency/postgres"
	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/ports"
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, owner_id, item_id, amount_cents, status, checkout_session_id, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, order domain.Order) error {
	query := `
		INSERT INTO orders (id, owner_id, item_id, amount_cents, status, checkout_session_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.OwnerID,
		order.ItemID,
		order.AmountCents,
		order.Status,
		order.CheckoutSessionID,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *Repository) GetBySessionKey(ctx context.Context, sessionKey string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE checkout_session_id = $1`, sessionKey)
	return scanOrder(row)
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.OwnerID,
		&order.ItemID,
		&order.AmountCents,
		&order.Status,
		&order.CheckoutSessionID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	return &order, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text IS NULL OR owner_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	var ownerFilter *string
	if filter.OwnerID != "" {
		owner := filter.OwnerID
		ownerFilter = &owner
	}

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	offset := (page - 1) * pageSize

	rows, err := r.pool.Query(ctx, query, ownerFilter, statusFilter, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.OwnerID,
			&order.ItemID,
			&order.AmountCents,
			&order.Status,
			&order.CheckoutSessionID,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

func (r *Repository) SetSessionKey(ctx context.Context, id string, sessionKey string) error {
	query := `
		UPDATE orders
		SET checkout_session_id = $1, updated_at = $2
		WHERE id = $3 AND checkout_session_id IS NULL
	`

	result, err := r.pool.Exec(ctx, query, sessionKey, time.Now().UTC(), id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ports.ErrSessionExists
		}
		return fmt.Errorf("set session key: %w", err)
	}

	if result.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ports.ErrSessionExists
	}

	return nil
}

func (r *Repository) CompareAndSetStatus(ctx context.Context, id string, expected, next domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, next, time.Now().UTC(), id, expected)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ports.ErrStatusChanged
	}

	return nil
}

// ApplyTransition reserves the event id and flips the order status in one
// transaction. If either half cannot proceed the whole transaction rolls
// back, so a redelivered event always finds consistent state.
func (r *Repository) ApplyTransition(ctx context.Context, eventID, orderID string, expected, next domain.OrderStatus) (ports.TransitionResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	reserved, err := idempostgres.ReserveInTx(ctx, tx, eventID)
	if err != nil {
		return 0, err
	}
	if !reserved {
		return ports.TransitionDuplicateEvent, nil
	}

	result, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, next, time.Now().UTC(), orderID, expected)
	if err != nil {
		return 0, fmt.Errorf("update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Roll the reservation back with the transaction: the delivery is
		// answered from current order state, not recorded as processed.
		return ports.TransitionStatusMismatch, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transition: %w", err)
	}

	return ports.TransitionApplied, nil
}
