package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maharish/dinetrack/internal/domain/order"
)

const (
	insertHistorySQL = `INSERT INTO order_history (order_id, created_at, table_number, member_id, items, final_price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	findHistorySQL = `SELECT order_id, created_at, table_number, member_id, items, final_price
		FROM order_history WHERE order_id = $1`
)

var _ order.HistoryRepository = (*OrderHistoryRepository)(nil)

// OrderHistoryRepository implements order.HistoryRepository backed by
// PostgreSQL. The order_id column carries a unique index, which is what makes
// a racing second close fail instead of duplicating history.
type OrderHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewOrderHistoryRepository returns an OrderHistoryRepository that uses the
// given pool.
func NewOrderHistoryRepository(pool *pgxpool.Pool) *OrderHistoryRepository {
	return &OrderHistoryRepository{pool: pool}
}

// Insert writes an immutable history record. A second record for the same
// order ID fails with order.ErrDuplicate.
func (r *OrderHistoryRepository) Insert(ctx context.Context, rec *order.HistoryRecord) error {
	linesJSON, err := json.Marshal(rec.Lines)
	if err != nil {
		return fmt.Errorf("marshaling history lines: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertHistorySQL,
		rec.OrderID, rec.CreatedAt, rec.TableNumber, rec.MemberID, linesJSON, rec.FinalPrice,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrDuplicate
		}
		return fmt.Errorf("inserting history for order %q: %w", rec.OrderID, err)
	}
	return nil
}

// FindByID returns the history record for a closed order, or
// order.ErrHistoryNotFound.
func (r *OrderHistoryRepository) FindByID(ctx context.Context, id string) (*order.HistoryRecord, error) {
	rows, err := r.pool.Query(ctx, findHistorySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting history for order %q: %w", id, err)
	}

	rec, err := pgx.CollectExactlyOneRow(rows, scanHistory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrHistoryNotFound
		}
		return nil, fmt.Errorf("getting history for order %q: %w", id, err)
	}
	return &rec, nil
}

func scanHistory(row pgx.CollectableRow) (order.HistoryRecord, error) {
	var (
		rec       order.HistoryRecord
		linesJSON []byte
	)
	err := row.Scan(
		&rec.OrderID, &rec.CreatedAt, &rec.TableNumber, &rec.MemberID,
		&linesJSON, &rec.FinalPrice,
	)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(linesJSON, &rec.Lines); err != nil {
		return rec, fmt.Errorf("unmarshaling history lines: %w", err)
	}
	return rec, nil
}
