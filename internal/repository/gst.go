package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/maharish/dinetrack/internal/domain/gst"
)

const (
	latestGSTSQL = `SELECT cgst, sgst, recorded_at FROM gst_rates ORDER BY recorded_at DESC LIMIT 1`

	gstHistorySQL = `SELECT cgst, sgst, recorded_at FROM gst_rates ORDER BY recorded_at DESC`

	addGSTSQL = `INSERT INTO gst_rates (cgst, sgst, recorded_at) VALUES ($1, $2, $3)`
)

var _ gst.Repository = (*GSTRepository)(nil)

// GSTRepository implements gst.Repository backed by PostgreSQL.
type GSTRepository struct {
	pool *pgxpool.Pool
}

// NewGSTRepository returns a GSTRepository that uses the given pool.
func NewGSTRepository(pool *pgxpool.Pool) *GSTRepository {
	return &GSTRepository{pool: pool}
}

// Latest returns the most recently recorded rates, or gst.ErrNoRates.
func (r *GSTRepository) Latest(ctx context.Context) (*gst.Rate, error) {
	var rate gst.Rate
	err := r.pool.QueryRow(ctx, latestGSTSQL).Scan(&rate.CGST, &rate.SGST, &rate.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gst.ErrNoRates
		}
		return nil, fmt.Errorf("getting latest gst rates: %w", err)
	}
	return &rate, nil
}

// History returns all recorded rates, newest first.
func (r *GSTRepository) History(ctx context.Context) ([]gst.Rate, error) {
	rows, err := r.pool.Query(ctx, gstHistorySQL)
	if err != nil {
		return nil, fmt.Errorf("getting gst history: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (gst.Rate, error) {
		var rate gst.Rate
		err := row.Scan(&rate.CGST, &rate.SGST, &rate.RecordedAt)
		return rate, err
	})
}

// Add appends a new timestamped rate record.
func (r *GSTRepository) Add(ctx context.Context, cgst, sgst decimal.Decimal) error {
	if _, err := r.pool.Exec(ctx, addGSTSQL, cgst, sgst, time.Now().UTC()); err != nil {
		return fmt.Errorf("adding gst rates: %w", err)
	}
	return nil
}
