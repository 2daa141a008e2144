package order_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/database/dbtest"
	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
	"wildcafe-pos/internal/order"
	"wildcafe-pos/internal/order/db"
	"wildcafe-pos/internal/printer"
	"wildcafe-pos/internal/receipt"
)

type stubSettings struct {
	mu       sync.Mutex
	settings models.Settings
	err      error
}

func (s *stubSettings) GetSettings(ctx context.Context) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	cp := s.settings
	return &cp, nil
}

type MockPrinter struct {
	mock.Mock
}

func (m *MockPrinter) Print(ctx context.Context, destination string, doc receipt.Document) printer.Outcome {
	args := m.Called(ctx, destination, doc)
	return args.Get(0).(printer.Outcome)
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) {
	r.mu.Lock()
	r.got = append(r.got, ev)
	r.mu.Unlock()
}

func (r *recordingPublisher) topics() []events.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Topic
	for _, ev := range r.got {
		out = append(out, ev.Topic)
	}
	return out
}

type recordingSales struct {
	got []models.SaleRecord
}

func (r *recordingSales) RecordSale(_ context.Context, sale models.SaleRecord) {
	r.got = append(r.got, sale)
}

type fixture struct {
	svc      *order.OrderService
	db       *db.DB
	settings *stubSettings
	events   *recordingPublisher
	sales    *recordingSales
	deskID   int64
}

func setup(t *testing.T, p order.Printer) *fixture {
	t.Helper()
	bunDB := dbtest.New(t)
	orderDB := &db.DB{Bun: bunDB}

	desk := &models.Desk{Name: "Garden 1"}
	_, err := bunDB.NewInsert().Model(desk).Exec(context.Background())
	require.NoError(t, err)

	renderer, err := receipt.NewRenderer()
	require.NoError(t, err)

	if p == nil {
		p = printer.NewDispatcher(nil, nil, time.Second, logger.New(nil))
	}

	f := &fixture{
		db:       orderDB,
		settings: &stubSettings{settings: *models.DefaultSettings()},
		events:   &recordingPublisher{},
		sales:    &recordingSales{},
		deskID:   desk.ID,
	}
	f.svc = order.NewOrderService(orderDB, f.settings, renderer, p, f.events, logger.New(nil))
	f.svc.Sales = f.sales
	return f
}

func (f *fixture) place(t *testing.T, items ...models.LineItem) int64 {
	t.Helper()
	desk := f.deskID
	res, err := f.svc.SendToKitchen(context.Background(), models.KitchenOrderRequest{
		Products: items,
		Price:    100,
		DeskID:   &desk,
	})
	require.NoError(t, err)
	return res.NewOrderID
}

func countSales(t *testing.T, f *fixture) int {
	n, err := f.db.Bun.NewSelect().Model((*models.Order)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestSendToKitchenThenFetchOngoing(t *testing.T) {
	f := setup(t, nil)
	items := []models.LineItem{
		{Name: "Kottu", Price: 900, Qty: 2},
		{Name: "Lime Juice", Price: 300, Qty: 1},
	}
	desk := f.deskID

	res, err := f.svc.SendToKitchen(context.Background(), models.KitchenOrderRequest{
		Products: items, Price: 2100, DeskID: &desk, Notes: "no chilli",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Order sent to kitchen.", res.Message)
	assert.Equal(t, "Printer not configured.", res.PrintStatus.Kitchen)

	ongoing, err := f.svc.FetchOngoing(context.Background())
	require.NoError(t, err)
	require.Len(t, ongoing, 1)
	assert.Equal(t, res.NewOrderID, ongoing[0].ID)
	assert.Equal(t, models.StatusPending, ongoing[0].Status)
	assert.Equal(t, items, ongoing[0].Items)
	assert.Equal(t, "Garden 1", ongoing[0].TableName)
	assert.Equal(t, "no chilli", ongoing[0].Notes)

	assert.Equal(t, []events.Topic{events.OrdersUpdated}, f.events.topics())
}

func TestSendToKitchenValidationWritesNothing(t *testing.T) {
	f := setup(t, nil)
	missing := f.deskID + 40
	zero := int64(0)
	good := f.deskID
	item := []models.LineItem{{Name: "Tea", Price: 50, Qty: 1}}

	cases := map[string]struct {
		req  models.KitchenOrderRequest
		want string
	}{
		"no table":      {models.KitchenOrderRequest{Products: item}, "Cannot place order: Please select a table."},
		"zero table":    {models.KitchenOrderRequest{Products: item, DeskID: &zero}, "Cannot place order: Please select a table."},
		"unknown table": {models.KitchenOrderRequest{Products: item, DeskID: &missing}, "Cannot place order: Selected table does not exist."},
		"no items":      {models.KitchenOrderRequest{DeskID: &good}, "Cannot place order: No items in the order."},
		"zero qty": {
			models.KitchenOrderRequest{DeskID: &good, Products: []models.LineItem{{Name: "Tea", Price: 50, Qty: 0}}},
			"Cannot place order: Invalid quantity for Tea.",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SendToKitchen(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrValidation))
			assert.Equal(t, tc.want, apperr.Message(err))
		})
	}

	assert.Zero(t, countSales(t, f))
	assert.Empty(t, f.events.topics())
}

func TestConfirmPaymentTwiceOnlyOneWins(t *testing.T) {
	f := setup(t, nil)
	id := f.place(t, models.LineItem{Name: "Tea", Price: 50, Qty: 2})

	const attempts = 6
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.ConfirmPayment(context.Background(), models.PaymentRequest{
				OrderID: id, PaymentMode: "Cash", AmountPaid: 100,
			})
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrConflict):
			conflicts++
			assert.Equal(t, "Order not found or was already paid.", apperr.Message(err))
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, f.sales.got, 1)
}

func TestConfirmPaymentPersistsAndPrints(t *testing.T) {
	p := new(MockPrinter)
	f := setup(t, p)
	f.settings.settings.ShopPrinter = "EPSON_TM"
	f.settings.settings.DiscountEnabled = true
	f.settings.settings.DiscountRate = 10
	f.settings.settings.TaxEnabled = true
	f.settings.settings.TaxRate = 5

	p.On("Print", mock.Anything, "none", mock.Anything).
		Return(printer.Outcome{Status: printer.StatusNotConfigured, Message: "Printer not configured."}).Once()
	id := f.place(t, models.LineItem{Name: "Rice", Price: 250, Qty: 4})

	p.On("Print", mock.Anything, "EPSON_TM", mock.MatchedBy(func(doc receipt.Document) bool {
		return doc.Kind == receipt.KindShop && strings.Contains(doc.HTML, "Rs945.00")
	})).Return(printer.Outcome{Status: printer.StatusPrinted, Destination: "EPSON_TM", Message: "Printed to EPSON_TM"}).Once()

	fixed := time.Date(2024, 5, 4, 18, 30, 0, 0, time.Local)
	f.svc.Now = func() time.Time { return fixed }

	res, err := f.svc.ConfirmPayment(context.Background(), models.PaymentRequest{
		OrderID: id, PaymentMode: "Cash", AmountPaid: 1000, ChangeAmount: 55,
	})
	require.NoError(t, err)
	assert.Equal(t, "Payment confirmed and order marked as paid.", res.Message)
	assert.Equal(t, "Printed to EPSON_TM", res.PrintStatus.Shop)
	p.AssertExpectations(t)

	stored, err := f.db.GetOrderByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)
	assert.Equal(t, 1000.0, stored.Price)
	assert.True(t, fixed.Equal(stored.Timestamp))
	require.NotNil(t, stored.PaymentMode)
	assert.Equal(t, "Cash", *stored.PaymentMode)

	require.Len(t, f.sales.got, 1)
	assert.Equal(t, 1000.0, f.sales.got[0].AmountPaid)
}

func TestConfirmPaymentPrintFailureKeepsPayment(t *testing.T) {
	p := new(MockPrinter)
	f := setup(t, p)
	p.On("Print", mock.Anything, "none", mock.Anything).
		Return(printer.Outcome{Status: printer.StatusNotConfigured, Message: "Printer not configured."})
	id := f.place(t, models.LineItem{Name: "Tea", Price: 50, Qty: 1})

	f.settings.settings.ShopPrinter = "ghost"
	p.On("Print", mock.Anything, "ghost", mock.Anything).
		Return(printer.Outcome{Status: printer.StatusFailed, Message: "Failed: printer offline"})

	res, err := f.svc.ConfirmPayment(context.Background(), models.PaymentRequest{OrderID: id, PaymentMode: "Card", AmountPaid: 50})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Failed: printer offline", res.PrintStatus.Shop)

	stored, err := f.db.GetOrderByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)
}

func TestConfirmPaymentNonePrinterAnyCase(t *testing.T) {
	for _, dest := range []string{"none", "NONE", ""} {
		f := setup(t, nil)
		f.settings.settings.ShopPrinter = dest
		id := f.place(t, models.LineItem{Name: "Tea", Price: 50, Qty: 1})

		res, err := f.svc.ConfirmPayment(context.Background(), models.PaymentRequest{OrderID: id, PaymentMode: "Cash", AmountPaid: 50})
		require.NoError(t, err, dest)
		assert.Equal(t, "Printer not configured.", res.PrintStatus.Shop)
	}
}

func TestConfirmPaymentErrors(t *testing.T) {
	f := setup(t, nil)

	_, err := f.svc.ConfirmPayment(context.Background(), models.PaymentRequest{OrderID: 404, PaymentMode: "Cash"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.svc.ConfirmPayment(context.Background(), models.PaymentRequest{OrderID: 1})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	id := f.place(t, models.LineItem{Name: "Tea", Price: 50, Qty: 1})
	f.settings.err = errors.New("settings table locked")
	_, err = f.svc.ConfirmPayment(context.Background(), models.PaymentRequest{OrderID: id, PaymentMode: "Cash"})
	assert.True(t, errors.Is(err, apperr.ErrPersistence))

	// a settings failure happens before the write, so the order is still open
	stored, err := f.db.GetOrderByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestSendToKitchenSettingsFailureStillSucceeds(t *testing.T) {
	f := setup(t, nil)
	f.settings.err = errors.New("boom")

	desk := f.deskID
	res, err := f.svc.SendToKitchen(context.Background(), models.KitchenOrderRequest{
		Products: []models.LineItem{{Name: "Tea", Price: 50, Qty: 1}}, DeskID: &desk,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.PrintStatus.Kitchen, "Failed:")
	assert.Equal(t, 1, countSales(t, f))
}

func TestMalformedItemsDegradeToEmpty(t *testing.T) {
	f := setup(t, nil)
	desk := f.deskID
	now := time.Now().Truncate(time.Second)
	bad := &models.Order{Products: "{not json", DeskID: &desk, Status: models.StatusPending, Timestamp: now, CreatedAt: now}
	require.NoError(t, f.db.CreateOrder(context.Background(), bad))

	ongoing, err := f.svc.FetchOngoing(context.Background())
	require.NoError(t, err)
	require.Len(t, ongoing, 1)
	assert.Equal(t, bad.ID, ongoing[0].ID)
	assert.NotNil(t, ongoing[0].Items)
	assert.Empty(t, ongoing[0].Items)
}

func TestFetchPastInclusiveDays(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	pay := func(at time.Time) int64 {
		f.svc.Now = func() time.Time { return at }
		id := f.place(t, models.LineItem{Name: "Tea", Price: 50, Qty: 1})
		_, err := f.svc.ConfirmPayment(ctx, models.PaymentRequest{OrderID: id, PaymentMode: "Cash", AmountPaid: 50})
		require.NoError(t, err)
		return id
	}
	before := pay(time.Date(2023, 12, 31, 23, 59, 59, 0, time.Local))
	first := pay(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local))
	last := pay(time.Date(2024, 1, 1, 23, 59, 59, 0, time.Local))
	after := pay(time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local))

	past, err := f.svc.FetchPast(ctx, "2024-01-01", "2024-01-01")
	require.NoError(t, err)
	var ids []int64
	for _, p := range past {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{last, first}, ids)
	assert.NotContains(t, ids, before)
	assert.NotContains(t, ids, after)
	assert.Equal(t, "Cash", past[0].PaymentMode)
	assert.Equal(t, "Garden 1", past[0].DeskName)

	all, err := f.svc.FetchPast(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = f.svc.FetchPast(ctx, "01/01/2024", "")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

type windowDB struct {
	order.DBLayer
	from, to time.Time
}

func (w *windowDB) GetPaidOrders(_ context.Context, from, to time.Time) ([]models.Order, error) {
	w.from, w.to = from, to
	return nil, nil
}

func TestFetchPastDaylightSavingDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	cases := []struct {
		day  string
		from time.Time
		to   time.Time
	}{
		// 23 hour day
		{"2024-03-10", time.Date(2024, 3, 10, 0, 0, 0, 0, ny), time.Date(2024, 3, 10, 23, 59, 59, 0, ny)},
		// 25 hour day
		{"2024-11-03", time.Date(2024, 11, 3, 0, 0, 0, 0, ny), time.Date(2024, 11, 3, 23, 59, 59, 0, ny)},
	}
	for _, tc := range cases {
		w := &windowDB{}
		svc := order.NewOrderService(w, &stubSettings{}, nil, nil, nil, logger.New(nil))
		svc.Location = ny

		_, err := svc.FetchPast(context.Background(), tc.day, tc.day)
		require.NoError(t, err, tc.day)
		assert.True(t, tc.from.Equal(w.from), "%s from %s", tc.day, w.from)
		assert.True(t, tc.to.Equal(w.to), "%s to %s", tc.day, w.to)
	}
}

func TestShopReceiptUsesDefaultCurrencyWhenSymbolBlank(t *testing.T) {
	p := new(MockPrinter)
	f := setup(t, p)
	f.svc.DefaultCurrency = "$"
	f.settings.settings.CurrencySymbol = "  "
	f.settings.settings.ShopPrinter = "EPSON_TM"

	p.On("Print", mock.Anything, "none", mock.Anything).
		Return(printer.Outcome{Status: printer.StatusNotConfigured, Message: "Printer not configured."}).Once()
	id := f.place(t, models.LineItem{Name: "Rice", Price: 250, Qty: 2})

	p.On("Print", mock.Anything, "EPSON_TM", mock.MatchedBy(func(doc receipt.Document) bool {
		return strings.Contains(doc.HTML, "$500.00") && !strings.Contains(doc.HTML, "Rs500.00")
	})).Return(printer.Outcome{Status: printer.StatusPrinted, Destination: "EPSON_TM", Message: "Printed to EPSON_TM"}).Once()

	res, err := f.svc.ConfirmPayment(context.Background(), models.PaymentRequest{OrderID: id, PaymentMode: "Cash", AmountPaid: 500})
	require.NoError(t, err)
	assert.Equal(t, "Printed to EPSON_TM", res.PrintStatus.Shop)
	p.AssertExpectations(t)
}

func TestFetchPastDeletedTableFallback(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	id := f.place(t, models.LineItem{Name: "Tea", Price: 50, Qty: 1})
	_, err := f.svc.ConfirmPayment(ctx, models.PaymentRequest{OrderID: id, PaymentMode: "Cash", AmountPaid: 50})
	require.NoError(t, err)

	_, err = f.db.Bun.NewDelete().Model((*models.Desk)(nil)).Where("id = ?", f.deskID).Exec(ctx)
	require.NoError(t, err)

	past, err := f.svc.FetchPast(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, fmt.Sprintf("Table ID %d", f.deskID), past[0].DeskName)
}

func TestRemoveOrder(t *testing.T) {
	f := setup(t, nil)
	id := f.place(t, models.LineItem{Name: "Tea", Price: 50, Qty: 1})

	require.NoError(t, f.svc.RemoveOrder(context.Background(), id))

	err := f.svc.RemoveOrder(context.Background(), id)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, "Order not found or already deleted.", apperr.Message(err))
}

func TestClearOrders(t *testing.T) {
	f := setup(t, nil)
	f.place(t, models.LineItem{Name: "Tea", Price: 50, Qty: 1})
	f.place(t, models.LineItem{Name: "Coffee", Price: 80, Qty: 1})

	n, err := f.svc.ClearOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Zero(t, countSales(t, f))
	assert.Contains(t, f.events.topics(), events.DatabaseCleared)
}
