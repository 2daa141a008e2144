package order_api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildcafe-pos/internal/database/dbtest"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
	"wildcafe-pos/internal/order"
	"wildcafe-pos/internal/order/db"
	"wildcafe-pos/internal/printer"
	"wildcafe-pos/internal/receipt"
	"wildcafe-pos/internal/settings"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newRouter(t *testing.T) (http.Handler, int64) {
	t.Helper()
	bunDB := dbtest.New(t)
	log := logger.New(nil)

	desk := &models.Desk{Name: "Terrace"}
	_, err := bunDB.NewInsert().Model(desk).Exec(context.Background())
	require.NoError(t, err)

	renderer, err := receipt.NewRenderer()
	require.NoError(t, err)

	svc := order.NewOrderService(
		&db.DB{Bun: bunDB},
		settings.NewService(bunDB, nil, log),
		renderer,
		printer.NewDispatcher(nil, nil, time.Second, log),
		nil,
		log,
	)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewHandler(svc, log).RegisterRoutes(r)
	})
	return r, desk.ID
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func placeOrder(t *testing.T, h http.Handler, deskID int64) int64 {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/orders", models.KitchenOrderRequest{
		Products: []models.LineItem{{Name: "Rice & Curry", Price: 650, Qty: 2}},
		Price:    1300,
		DeskID:   &deskID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res models.KitchenOrderResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotZero(t, res.NewOrderID)
	assert.Equal(t, "Printer not configured.", res.PrintStatus.Kitchen)
	return res.NewOrderID
}

func TestSendToKitchenAndFetchOngoing(t *testing.T) {
	h, deskID := newRouter(t)
	id := placeOrder(t, h, deskID)

	rec, env := do(t, h, http.MethodGet, "/api/orders/ongoing", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []models.Order
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, id, orders[0].ID)
	assert.Equal(t, models.StatusPending, orders[0].Status)
	assert.Equal(t, "Terrace", orders[0].TableName)
	assert.Equal(t, []models.LineItem{{Name: "Rice & Curry", Price: 650, Qty: 2}}, orders[0].Items)
}

func TestSendToKitchenValidation(t *testing.T) {
	h, _ := newRouter(t)

	rec, env := do(t, h, http.MethodPost, "/api/orders", models.KitchenOrderRequest{
		Products: []models.LineItem{{Name: "Tea", Price: 150, Qty: 1}},
		Price:    150,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Cannot place order: Please select a table.", env.Message)
	assert.Equal(t, "validation", env.Error)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	h.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestConfirmPaymentTwice(t *testing.T) {
	h, deskID := newRouter(t)
	id := placeOrder(t, h, deskID)
	path := fmt.Sprintf("/api/orders/%d/payment", id)
	body := map[string]interface{}{"payment_mode": "Cash", "amount_paid": 1500, "change_amount": 200}

	rec, env := do(t, h, http.MethodPost, path, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Payment confirmed and order marked as paid.", env.Message)

	rec, env = do(t, h, http.MethodPost, path, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Order not found or was already paid.", env.Message)

	rec, env = do(t, h, http.MethodGet, "/api/orders/past", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var past []models.PastOrder
	require.NoError(t, json.Unmarshal(env.Data, &past))
	require.Len(t, past, 1)
	assert.Equal(t, "Cash", past[0].PaymentMode)
	assert.Equal(t, "Terrace", past[0].DeskName)
}

func TestConfirmPaymentBadPath(t *testing.T) {
	h, _ := newRouter(t)

	rec, _ := do(t, h, http.MethodPost, "/api/orders/abc/payment", map[string]string{"payment_mode": "Cash"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/orders/999/payment", map[string]string{"payment_mode": "Cash"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFetchPastBadDate(t *testing.T) {
	h, _ := newRouter(t)
	rec, env := do(t, h, http.MethodGet, "/api/orders/past?dateFrom=01-01-2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "dateFrom")
}

func TestRemoveOrderAndClear(t *testing.T) {
	h, deskID := newRouter(t)
	id := placeOrder(t, h, deskID)
	placeOrder(t, h, deskID)

	rec, _ := do(t, h, http.MethodDelete, fmt.Sprintf("/api/orders/%d", id), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, http.MethodDelete, fmt.Sprintf("/api/orders/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found or already deleted.", env.Message)

	rec, env = do(t, h, http.MethodPost, "/api/admin/clear-database", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cleared map[string]int64
	require.NoError(t, json.Unmarshal(env.Data, &cleared))
	assert.Equal(t, int64(1), cleared["deleted"])

	_, env = do(t, h, http.MethodGet, "/api/orders/ongoing", nil)
	assert.JSONEq(t, "[]", string(env.Data))
}
