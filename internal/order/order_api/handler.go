package order_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
	"wildcafe-pos/internal/order"
	"wildcafe-pos/internal/utils"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{
		OrderService: orderService,
		Logger:       log,
	}
}

// RegisterRoutes mounts the order endpoints under /orders and the admin reset.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.SendToKitchen)
		r.Get("/ongoing", h.FetchOngoing)
		r.Get("/past", h.FetchPast)
		r.Post("/{orderId}/payment", h.ConfirmPayment)
		r.Delete("/{orderId}", h.RemoveOrder)
	})
	r.Post("/admin/clear-database", h.ClearDatabase)
}

func (h *Handler) SendToKitchen(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "SendToKitchen: received request")

	var req models.KitchenOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SendToKitchen: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Validation("SendToKitchen", "Invalid request body."))
		return
	}

	result, err := h.OrderService.SendToKitchen(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("SendToKitchen: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, result.Message, result)
	h.Logger.Info("API", fmt.Sprintf("SendToKitchen: order #%d created", result.NewOrderID))
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("ConfirmPayment: orderId=%d", orderID))

	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ConfirmPayment: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Validation("ConfirmPayment", "Invalid request body."))
		return
	}
	req.OrderID = orderID

	result, err := h.OrderService.ConfirmPayment(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("ConfirmPayment: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, result.Message, result)
}

func (h *Handler) FetchOngoing(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.FetchOngoing(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d ongoing orders", len(orders)), orders)
}

func (h *Handler) FetchPast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.Logger.Debug("API", fmt.Sprintf("FetchPast: dateFrom=%s dateTo=%s", q.Get("dateFrom"), q.Get("dateTo")))

	orders, err := h.OrderService.FetchPast(r.Context(), q.Get("dateFrom"), q.Get("dateTo"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d past orders", len(orders)), orders)
}

func (h *Handler) RemoveOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("RemoveOrder: orderId=%d", orderID))

	if err := h.OrderService.RemoveOrder(r.Context(), orderID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Order removed.", nil)
}

func (h *Handler) ClearDatabase(w http.ResponseWriter, r *http.Request) {
	h.Logger.Warn("API", "ClearDatabase: clearing all sales")

	n, err := h.OrderService.ClearOrders(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Database cleared.", map[string]int64{"deleted": n})
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("pathID", "Invalid %s %q.", key, raw)
	}
	return id, nil
}
