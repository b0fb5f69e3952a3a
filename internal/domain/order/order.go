package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for the order lifecycle.
var (
	ErrNotFound        = errors.New("order not found")
	ErrHistoryNotFound = errors.New("order not found in history")
	ErrDuplicate       = errors.New("order already exists")
	ErrEmptyOrderID    = errors.New("order id required")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	MenuItem string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %s", e.MenuItem)
}

// NegativePriceError indicates a line item carries a negative unit price.
type NegativePriceError struct {
	MenuItem string
}

func (e *NegativePriceError) Error() string {
	return fmt.Sprintf("price must not be negative for item %s", e.MenuItem)
}

// Line is a single priced line item on an order. TotalPrice is derived and
// always recomputed server-side; client-supplied values are discarded.
type Line struct {
	MenuItem        string          `json:"menuItem"`
	Quantity        int             `json:"quantity"`
	IndividualPrice decimal.Decimal `json:"individual_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

// Order is a live, mutable order. FinalPrice is nil until the order is
// closed; closing migrates the order into history.
type Order struct {
	ID          string
	CreatedAt   time.Time
	TableNumber string
	MemberID    string
	Lines       []Line
	IsClosed    bool
	IsUpdated   bool
	Remarks     string
	FinalPrice  *decimal.Decimal
}

// HistoryRecord is the immutable snapshot of a closed order.
type HistoryRecord struct {
	OrderID     string
	CreatedAt   time.Time
	TableNumber string
	MemberID    string
	Lines       []Line
	FinalPrice  decimal.Decimal
}

// PaymentMethod enumerates the supported settlement methods.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
	PaymentCredit PaymentMethod = "credit"
)

// ErrInvalidPaymentMethod is returned for unknown payment method values.
var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// ParsePaymentMethod validates a raw payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCash, PaymentOnline, PaymentCredit:
		return PaymentMethod(s), nil
	}
	return "", ErrInvalidPaymentMethod
}

// PaymentRecord logs a payment-method selection against a history record.
// An order may accumulate multiple records when payment selection is retried.
type PaymentRecord struct {
	ID            string
	OrderID       string
	MemberID      string
	FinalPrice    decimal.Decimal
	PaymentMethod PaymentMethod
	PaymentTime   time.Time
}

// Repository defines persistence operations for live orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id string) error
	ResetUpdated(ctx context.Context, ids []string) error
}

// HistoryRepository defines persistence operations for closed orders.
// Insert must reject a second record for the same order ID with ErrDuplicate.
type HistoryRepository interface {
	Insert(ctx context.Context, rec *HistoryRecord) error
	FindByID(ctx context.Context, id string) (*HistoryRecord, error)
}

// PaymentRepository appends payment records.
type PaymentRepository interface {
	Append(ctx context.Context, rec *PaymentRecord) error
}

// PaymentLinkSender delivers a payment link for a closed order. Implementations
// are best-effort: callers never propagate a send failure to the client.
type PaymentLinkSender interface {
	SendPaymentLink(ctx context.Context, rec *HistoryRecord) error
}
