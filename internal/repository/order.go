package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/maharish/dinetrack/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (order_id, created_at, table_number, member_id, items, is_closed, is_updated, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	findOrderSQL = `SELECT order_id, created_at, table_number, member_id, items, is_closed, is_updated, remarks, final_price
		FROM orders WHERE order_id = $1`

	listOrdersSQL = `SELECT order_id, created_at, table_number, member_id, items, is_closed, is_updated, remarks, final_price
		FROM orders ORDER BY created_at DESC`

	updateOrderSQL = `UPDATE orders SET table_number = $2, member_id = $3, items = $4, is_updated = $5, remarks = $6
		WHERE order_id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE order_id = $1`

	resetUpdatedSQL = `UPDATE orders SET is_updated = FALSE WHERE order_id = ANY($1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items are serialized to JSON for storage in the JSONB column.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new live order. A reused order ID fails with
// order.ErrDuplicate.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.CreatedAt, o.TableNumber, o.MemberID, linesJSON, o.IsClosed, o.IsUpdated, o.Remarks,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrDuplicate
		}
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// FindByID returns a single live order, or order.ErrNotFound.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, findOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns all live orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Update overwrites the mutable fields of a live order.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}

	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, o.TableNumber, o.MemberID, linesJSON, o.IsUpdated, o.Remarks,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes a live order.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ResetUpdated clears the is_updated flag on every matching order. IDs with
// no matching row are ignored.
func (r *OrderRepository) ResetUpdated(ctx context.Context, ids []string) error {
	if _, err := r.pool.Exec(ctx, resetUpdatedSQL, ids); err != nil {
		return fmt.Errorf("resetting update flags: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o          order.Order
		linesJSON  []byte
		finalPrice decimal.NullDecimal
	)
	err := row.Scan(
		&o.ID, &o.CreatedAt, &o.TableNumber, &o.MemberID,
		&linesJSON, &o.IsClosed, &o.IsUpdated, &o.Remarks, &finalPrice,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return o, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	if finalPrice.Valid {
		o.FinalPrice = &finalPrice.Decimal
	}
	return o, nil
}
