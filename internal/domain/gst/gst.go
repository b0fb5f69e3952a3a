// Package gst keeps the history of GST (CGST + SGST) rate records. Rates are
// append-only; the latest record is the one in effect.
package gst

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNoRates is returned when no GST record has been stored yet.
var ErrNoRates = errors.New("no gst rates recorded")

// Rate is a single GST rate record.
type Rate struct {
	CGST       decimal.Decimal
	SGST       decimal.Decimal
	RecordedAt time.Time
}

// Repository provides append and lookup of GST rate records.
type Repository interface {
	Latest(ctx context.Context) (*Rate, error)
	History(ctx context.Context) ([]Rate, error)
	Add(ctx context.Context, cgst, sgst decimal.Decimal) error
}
