package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LineInput is the client-supplied portion of a line item. The derived total
// is computed by the pricing engine, never taken from the request.
type LineInput struct {
	MenuItem        string
	Quantity        int
	IndividualPrice decimal.Decimal
}

// CreateRequest holds the input for creating a live order.
type CreateRequest struct {
	OrderID     string
	TableNumber string
	MemberID    string
	Items       []LineInput
}

// UpdateRequest holds a partial update for a live order. Nil fields are left
// untouched; a non-nil Items slice replaces the order's lines wholesale with
// recomputed totals.
type UpdateRequest struct {
	TableNumber *string
	Remarks     *string
	Items       []LineInput
}

// Service orchestrates the order lifecycle: create, update, close (migrate to
// history), and payment recording.
type Service struct {
	orders   Repository
	history  HistoryRepository
	payments PaymentRepository
	notifier PaymentLinkSender
	lg       *zap.Logger
	now      func() time.Time
}

// NewService creates a lifecycle Service with the required stores and the
// payment-link notifier.
func NewService(
	orders Repository,
	history HistoryRepository,
	payments PaymentRepository,
	notifier PaymentLinkSender,
	lg *zap.Logger,
) *Service {
	return &Service{
		orders:   orders,
		history:  history,
		payments: payments,
		notifier: notifier,
		lg:       lg,
		now:      time.Now,
	}
}

// Create validates the request, prices every line, and persists a new open
// order. A reused order ID fails with ErrDuplicate.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if req.OrderID == "" {
		return nil, ErrEmptyOrderID
	}

	lines, err := priceLines(req.Items)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:          req.OrderID,
		CreatedAt:   s.now().UTC(),
		TableNumber: req.TableNumber,
		MemberID:    req.MemberID,
		Lines:       lines,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrapf(err, "create order %s", req.OrderID)
	}
	return o, nil
}

// Get returns a live order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.FindByID(ctx, id)
}

// List returns all live orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// Update applies a partial update to a live order and marks it updated.
// Closed or missing orders fail with ErrNotFound. Concurrent updates are
// last-write-wins per field set; the store guarantees per-call atomicity only.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.IsClosed {
		return nil, ErrNotFound
	}

	if req.TableNumber != nil {
		o.TableNumber = *req.TableNumber
	}
	if req.Remarks != nil {
		o.Remarks = *req.Remarks
	}
	if req.Items != nil {
		lines, err := priceLines(req.Items)
		if err != nil {
			return nil, err
		}
		o.Lines = lines
	}
	o.IsUpdated = true

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrapf(err, "update order %s", id)
	}
	return o, nil
}

// Close finalizes an order: it derives the authoritative final price, writes
// an immutable history record, and only then removes the live order.
//
// The two store calls are not one transaction. History is written first
// because a live order that survives next to its history record is a safer
// failure than a deleted order with no history; a concurrent second close is
// rejected by the history store's uniqueness guarantee. A failed delete after
// a successful insert is reported to the caller and is safe to retry.
func (s *Service) Close(ctx context.Context, id string) (*HistoryRecord, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rec := &HistoryRecord{
		OrderID:     o.ID,
		CreatedAt:   o.CreatedAt,
		TableNumber: o.TableNumber,
		MemberID:    o.MemberID,
		Lines:       o.Lines,
		FinalPrice:  OrderTotal(o.Lines),
	}
	if err := s.history.Insert(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrapf(err, "insert history for order %s", id)
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return nil, errors.Wrapf(err, "delete closed order %s", id)
	}
	return rec, nil
}

// History returns the archived record for a closed order.
func (s *Service) History(ctx context.Context, id string) (*HistoryRecord, error) {
	return s.history.FindByID(ctx, id)
}

// RecordPayment appends a payment record for a closed order, copying the
// settled final price from history. Selecting the online method additionally
// dispatches a payment link in the background; a delivery failure is logged
// and never affects the caller.
func (s *Service) RecordPayment(ctx context.Context, id string, method PaymentMethod) (*PaymentRecord, error) {
	rec, err := s.history.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payment := &PaymentRecord{
		ID:            uuid.New().String(),
		OrderID:       rec.OrderID,
		MemberID:      rec.MemberID,
		FinalPrice:    rec.FinalPrice,
		PaymentMethod: method,
		PaymentTime:   s.now().UTC(),
	}
	if err := s.payments.Append(ctx, payment); err != nil {
		return nil, errors.Wrapf(err, "append payment for order %s", id)
	}

	if method == PaymentOnline {
		go func(ctx context.Context) {
			if err := s.notifier.SendPaymentLink(ctx, rec); err != nil {
				s.lg.Error("send payment link",
					zap.String("order_id", rec.OrderID),
					zap.Error(err),
				)
			}
		}(context.WithoutCancel(ctx))
	}
	return payment, nil
}

// ResetUpdateFlags clears the isUpdated flag on every matching live order.
// Unmatched IDs are silently ignored; an empty list is a no-op.
func (s *Service) ResetUpdateFlags(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.orders.ResetUpdated(ctx, ids); err != nil {
		return errors.Wrap(err, "reset update flags")
	}
	return nil
}
