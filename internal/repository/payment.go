package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maharish/dinetrack/internal/domain/order"
)

const appendPaymentSQL = `INSERT INTO payment_history (id, order_id, member_id, final_price, payment_method, payment_time)
	VALUES ($1, $2, $3, $4, $5, $6)`

var _ order.PaymentRepository = (*PaymentRepository)(nil)

// PaymentRepository implements order.PaymentRepository backed by PostgreSQL.
// Records are append-only; there is deliberately no uniqueness constraint on
// order_id so that retried payment selections are preserved.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Append stores a payment record.
func (r *PaymentRepository) Append(ctx context.Context, rec *order.PaymentRecord) error {
	_, err := r.pool.Exec(ctx, appendPaymentSQL,
		rec.ID, rec.OrderID, rec.MemberID, rec.FinalPrice, string(rec.PaymentMethod), rec.PaymentTime,
	)
	if err != nil {
		return fmt.Errorf("appending payment for order %q: %w", rec.OrderID, err)
	}
	return nil
}
