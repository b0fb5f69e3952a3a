package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	orders    map[string]*Order
	createErr error
	updateErr error
	deleteErr error
	resetIDs  []string
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.orders[o.ID]; ok {
		return ErrDuplicate
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]Order, error) {
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.orders[o.ID]; !ok {
		return ErrNotFound
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepo) ResetUpdated(_ context.Context, ids []string) error {
	m.resetIDs = ids
	for _, id := range ids {
		if o, ok := m.orders[id]; ok {
			o.IsUpdated = false
		}
	}
	return nil
}

type mockHistoryRepo struct {
	records   map[string]*HistoryRecord
	insertErr error
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{records: make(map[string]*HistoryRecord)}
}

func (m *mockHistoryRepo) Insert(_ context.Context, rec *HistoryRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.records[rec.OrderID]; ok {
		return ErrDuplicate
	}
	cp := *rec
	m.records[rec.OrderID] = &cp
	return nil
}

func (m *mockHistoryRepo) FindByID(_ context.Context, id string) (*HistoryRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrHistoryNotFound
	}
	cp := *rec
	return &cp, nil
}

type mockPaymentRepo struct {
	records   []*PaymentRecord
	appendErr error
}

func (m *mockPaymentRepo) Append(_ context.Context, rec *PaymentRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, rec)
	return nil
}

type mockNotifier struct {
	err   error
	sent  chan *HistoryRecord
	calls int
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{sent: make(chan *HistoryRecord, 8)}
}

func (m *mockNotifier) SendPaymentLink(_ context.Context, rec *HistoryRecord) error {
	m.calls++
	m.sent <- rec
	return m.err
}

// --- Helpers ---

type fixture struct {
	svc      *Service
	orders   *mockOrderRepo
	history  *mockHistoryRepo
	payments *mockPaymentRepo
	notifier *mockNotifier
}

func newFixture() *fixture {
	f := &fixture{
		orders:   newMockOrderRepo(),
		history:  newMockHistoryRepo(),
		payments: &mockPaymentRepo{},
		notifier: newMockNotifier(),
	}
	f.svc = NewService(f.orders, f.history, f.payments, f.notifier, zap.NewNop())
	return f
}

func pizzaPastaItems() []LineInput {
	return []LineInput{
		{MenuItem: "Pizza", Quantity: 2, IndividualPrice: decimal.NewFromInt(300)},
		{MenuItem: "Pasta", Quantity: 1, IndividualPrice: decimal.NewFromInt(200)},
	}
}

func waitForNotification(t *testing.T, n *mockNotifier) *HistoryRecord {
	t.Helper()
	select {
	case rec := <-n.sent:
		return rec
	case <-time.After(time.Second):
		t.Fatal("notifier was not invoked")
		return nil
	}
}

// --- Tests ---

func TestCreate(t *testing.T) {
	f := newFixture()

	o, err := f.svc.Create(context.Background(), CreateRequest{
		OrderID:     "ORD100",
		TableNumber: "T1",
		MemberID:    "M1",
		Items:       pizzaPastaItems(),
	})

	require.NoError(t, err)
	assert.Equal(t, "ORD100", o.ID)
	assert.False(t, o.IsClosed)
	assert.False(t, o.IsUpdated)
	assert.Nil(t, o.FinalPrice)
	require.Len(t, o.Lines, 2)
	assert.True(t, decimal.NewFromInt(600).Equal(o.Lines[0].TotalPrice))
	assert.True(t, decimal.NewFromInt(200).Equal(o.Lines[1].TotalPrice))
}

func TestCreate_EmptyOrderID(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateRequest{TableNumber: "T1"})
	require.ErrorIs(t, err, ErrEmptyOrderID)
}

func TestCreate_Duplicate(t *testing.T) {
	f := newFixture()
	req := CreateRequest{OrderID: "ORD100", TableNumber: "T1", Items: pizzaPastaItems()}

	_, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateRequest{
		OrderID: "ORD101",
		Items:   []LineInput{{MenuItem: "Pizza", Quantity: -1, IndividualPrice: decimal.NewFromInt(300)}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
}

func TestUpdate_RecomputesLineTotals(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{
		OrderID:     "ORD100",
		TableNumber: "T1",
		MemberID:    "M1",
		Items:       pizzaPastaItems(),
	})
	require.NoError(t, err)

	o, err := f.svc.Update(context.Background(), "ORD100", UpdateRequest{
		Items: []LineInput{{MenuItem: "Pizza", Quantity: 3, IndividualPrice: decimal.NewFromInt(300)}},
	})

	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.True(t, decimal.NewFromInt(900).Equal(o.Lines[0].TotalPrice))
	assert.True(t, o.IsUpdated)
	assert.Equal(t, "T1", o.TableNumber, "untouched fields unchanged")
	assert.Equal(t, "M1", o.MemberID)
}

func TestUpdate_PartialFields(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{
		OrderID:     "ORD100",
		TableNumber: "T1",
		Items:       pizzaPastaItems(),
	})
	require.NoError(t, err)

	table := "T9"
	remarks := "no onions"
	o, err := f.svc.Update(context.Background(), "ORD100", UpdateRequest{
		TableNumber: &table,
		Remarks:     &remarks,
	})

	require.NoError(t, err)
	assert.Equal(t, "T9", o.TableNumber)
	assert.Equal(t, "no onions", o.Remarks)
	assert.Len(t, o.Lines, 2, "lines untouched when not provided")
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Update(context.Background(), "NOPE", UpdateRequest{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClose_RoundTrip(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{
		OrderID:     "ORD100",
		TableNumber: "T1",
		MemberID:    "M1",
		Items:       pizzaPastaItems(),
	})
	require.NoError(t, err)

	rec, err := f.svc.Close(context.Background(), "ORD100")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(800).Equal(rec.FinalPrice), "got %s", rec.FinalPrice)

	// Live store no longer contains the order.
	_, err = f.svc.Get(context.Background(), "ORD100")
	require.ErrorIs(t, err, ErrNotFound)

	// History lookup returns the settled record.
	fetched, err := f.svc.History(context.Background(), "ORD100")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(800).Equal(fetched.FinalPrice))
	assert.Equal(t, "M1", fetched.MemberID)
}

func TestClose_PriceReflectsEditsBeforeClose(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{
		OrderID: "ORD100",
		Items:   pizzaPastaItems(),
	})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), "ORD100", UpdateRequest{
		Items: []LineInput{{MenuItem: "Pizza", Quantity: 3, IndividualPrice: decimal.NewFromInt(300)}},
	})
	require.NoError(t, err)

	rec, err := f.svc.Close(context.Background(), "ORD100")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(900).Equal(rec.FinalPrice))
}

func TestClose_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Close(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.history.records, "no history record created")
}

func TestClose_SecondCloseRejectedByHistoryUniqueness(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{
		OrderID: "ORD100",
		Items:   pizzaPastaItems(),
	})
	require.NoError(t, err)

	// Simulate a racing close that already archived the order but has not yet
	// deleted the live row.
	_, err = f.svc.Close(context.Background(), "ORD100")
	require.NoError(t, err)
	f.orders.orders["ORD100"] = &Order{ID: "ORD100", Lines: nil}

	_, err = f.svc.Close(context.Background(), "ORD100")
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestClose_DeleteFailureSurfaced(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{
		OrderID: "ORD100",
		Items:   pizzaPastaItems(),
	})
	require.NoError(t, err)

	f.orders.deleteErr = errors.New("connection reset")

	_, err = f.svc.Close(context.Background(), "ORD100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete closed order")

	// The history record survives; retrying is safe.
	_, err = f.svc.History(context.Background(), "ORD100")
	require.NoError(t, err)
}

func TestRecordPayment_Online(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{
		OrderID:  "ORD100",
		MemberID: "M1",
		Items:    pizzaPastaItems(),
	})
	require.NoError(t, err)
	_, err = f.svc.Close(context.Background(), "ORD100")
	require.NoError(t, err)

	payment, err := f.svc.RecordPayment(context.Background(), "ORD100", PaymentOnline)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(800).Equal(payment.FinalPrice))
	assert.Equal(t, PaymentOnline, payment.PaymentMethod)
	assert.Equal(t, "M1", payment.MemberID)
	assert.NotEmpty(t, payment.ID)

	sent := waitForNotification(t, f.notifier)
	assert.Equal(t, "ORD100", sent.OrderID)
	assert.Equal(t, 1, f.notifier.calls)
}

func TestRecordPayment_NotifierFailureDoesNotPropagate(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("smtp unreachable")

	_, err := f.svc.Create(context.Background(), CreateRequest{OrderID: "ORD100", Items: pizzaPastaItems()})
	require.NoError(t, err)
	_, err = f.svc.Close(context.Background(), "ORD100")
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(context.Background(), "ORD100", PaymentOnline)
	require.NoError(t, err)
	waitForNotification(t, f.notifier)
}

func TestRecordPayment_CashSkipsNotifier(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{OrderID: "ORD100", Items: pizzaPastaItems()})
	require.NoError(t, err)
	_, err = f.svc.Close(context.Background(), "ORD100")
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(context.Background(), "ORD100", PaymentCash)
	require.NoError(t, err)

	select {
	case <-f.notifier.sent:
		t.Fatal("notifier must not be invoked for cash payments")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRecordPayment_BeforeClose(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{OrderID: "ORD100", Items: pizzaPastaItems()})
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(context.Background(), "ORD100", PaymentCash)
	require.ErrorIs(t, err, ErrHistoryNotFound)
}

func TestRecordPayment_RepeatedCallsAppend(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{OrderID: "ORD100", Items: pizzaPastaItems()})
	require.NoError(t, err)
	_, err = f.svc.Close(context.Background(), "ORD100")
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(context.Background(), "ORD100", PaymentCash)
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(context.Background(), "ORD100", PaymentCredit)
	require.NoError(t, err)

	assert.Len(t, f.payments.records, 2)
}

func TestResetUpdateFlags(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateRequest{OrderID: "ORD100", Items: pizzaPastaItems()})
	require.NoError(t, err)
	_, err = f.svc.Update(context.Background(), "ORD100", UpdateRequest{Remarks: ptr("r")})
	require.NoError(t, err)

	err = f.svc.ResetUpdateFlags(context.Background(), []string{"ORD100", "UNKNOWN"})
	require.NoError(t, err)

	o, err := f.svc.Get(context.Background(), "ORD100")
	require.NoError(t, err)
	assert.False(t, o.IsUpdated)
}

func TestResetUpdateFlags_EmptyListIsNoop(t *testing.T) {
	f := newFixture()

	err := f.svc.ResetUpdateFlags(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, f.orders.resetIDs)
}

func TestParsePaymentMethod(t *testing.T) {
	for _, valid := range []string{"cash", "online", "credit"} {
		m, err := ParsePaymentMethod(valid)
		require.NoError(t, err)
		assert.Equal(t, PaymentMethod(valid), m)
	}

	_, err := ParsePaymentMethod("cheque")
	require.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func ptr[T any](v T) *T { return &v }
