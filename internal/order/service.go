package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
	"wildcafe-pos/internal/printer"
	"wildcafe-pos/internal/receipt"
)

const (
	msgSentToKitchen = "Order sent to kitchen."
	msgPaymentDone   = "Payment confirmed and order marked as paid."
	msgAlreadyPaid   = "Order not found or was already paid."
	msgOrderNotFound = "Order not found or already deleted."
	msgSelectTable   = "Cannot place order: Please select a table."
	msgNoItems       = "Cannot place order: No items in the order."
	msgUnknownTable  = "Cannot place order: Selected table does not exist."
	dateLayout       = "2006-01-02"
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, id int64, p models.Payment) (bool, error)
	GetPendingOrders(ctx context.Context) ([]models.Order, error)
	GetPaidOrders(ctx context.Context, from, to time.Time) ([]models.Order, error)
	DeleteOrder(ctx context.Context, id int64) (int64, error)
	DeleteAllOrders(ctx context.Context) (int64, error)
	GetDeskName(ctx context.Context, id int64) (string, error)
}

type SettingsReader interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
}

type Renderer interface {
	Render(kind receipt.Kind, t receipt.Ticket, s models.Settings, currency string) (receipt.Document, error)
}

type Printer interface {
	Print(ctx context.Context, destination string, doc receipt.Document) printer.Outcome
}

type SalesRecorder interface {
	RecordSale(ctx context.Context, sale models.SaleRecord)
}

type OrderService struct {
	DB       DBLayer
	Settings SettingsReader
	Renderer Renderer
	Printer  Printer
	Events   events.Publisher
	// Sales is optional.
	Sales    SalesRecorder
	Logger   *logger.Logger
	Location *time.Location
	Now      func() time.Time
	// DefaultCurrency is printed when the settings leave the symbol blank.
	DefaultCurrency string
}

func NewOrderService(db DBLayer, settings SettingsReader, renderer Renderer, p Printer, publisher events.Publisher, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:       db,
		Settings: settings,
		Renderer: renderer,
		Printer:  p,
		Events:   publisher,
		Logger:   log,
		Location: time.Local,
		Now:      time.Now,

		DefaultCurrency: models.DefaultCurrency,
	}
}

func (s *OrderService) now() time.Time {
	return s.Now().Truncate(time.Second)
}

// ---------------- KITCHEN ----------------

// SendToKitchen validates and stores a new pending order, then prints the kitchen
// ticket. Nothing is written when validation fails; print problems only show up
// in the result.
func (s *OrderService) SendToKitchen(ctx context.Context, req models.KitchenOrderRequest) (*models.KitchenOrderResult, error) {
	const op = "SendToKitchen"

	if req.DeskID == nil || *req.DeskID <= 0 {
		return nil, apperr.Validation(op, msgSelectTable)
	}
	if len(req.Products) == 0 {
		return nil, apperr.Validation(op, msgNoItems)
	}
	for _, it := range req.Products {
		if strings.TrimSpace(it.Name) == "" {
			return nil, apperr.Validation(op, "Cannot place order: Every item needs a name.")
		}
		if it.Qty <= 0 {
			return nil, apperr.Validation(op, "Cannot place order: Invalid quantity for %s.", it.Name)
		}
		if it.Price < 0 {
			return nil, apperr.Validation(op, "Cannot place order: Invalid price for %s.", it.Name)
		}
	}
	if req.Price < 0 {
		return nil, apperr.Validation(op, "Cannot place order: Invalid total.")
	}

	tableName, err := s.DB.GetDeskName(ctx, *req.DeskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Validation(op, msgUnknownTable)
	}
	if err != nil {
		return nil, s.persistence(op, err)
	}

	raw, err := models.EncodeItems(req.Products)
	if err != nil {
		return nil, apperr.Validation(op, "Cannot place order: %v", err)
	}

	now := s.now()
	order := &models.Order{
		Products:  raw,
		Price:     req.Price,
		DeskID:    req.DeskID,
		Status:    models.StatusPending,
		Notes:     strings.TrimSpace(req.Notes),
		Timestamp: now,
		CreatedAt: now,
	}
	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, s.persistence(op, err)
	}
	s.Logger.LogOrder("created", order.ID, fmt.Sprintf("table %s, %d items", tableName, len(req.Products)))

	outcome := s.printTicket(ctx, receipt.KindKitchen, receipt.Ticket{
		OrderID:   order.ID,
		TableName: tableName,
		Items:     req.Products,
		Notes:     order.Notes,
	}, func(st models.Settings) string { return st.KitchenPrinter })

	s.publish(ctx, events.ForOrder(events.OrdersUpdated, order.ID))

	return &models.KitchenOrderResult{
		Success:     true,
		Message:     msgSentToKitchen,
		NewOrderID:  order.ID,
		PrintStatus: models.PrintStatus{Kitchen: outcome.Message},
	}, nil
}

// ---------------- PAYMENT ----------------

// ConfirmPayment moves a pending order to paid exactly once and prints the
// customer receipt. A printing failure never undoes the payment.
func (s *OrderService) ConfirmPayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResult, error) {
	const op = "ConfirmPayment"

	if req.OrderID <= 0 {
		return nil, apperr.Validation(op, "Invalid order id.")
	}
	mode := strings.TrimSpace(req.PaymentMode)
	if mode == "" {
		return nil, apperr.Validation(op, "Payment mode is required.")
	}
	if req.AmountPaid < 0 || req.ChangeAmount < 0 {
		return nil, apperr.Validation(op, "Amounts cannot be negative.")
	}

	order, err := s.DB.GetOrderByID(ctx, req.OrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "Order #%d not found.", req.OrderID)
	}
	if err != nil {
		return nil, s.persistence(op, err)
	}
	if _, err := order.Status.TransitionTo(models.StatusPaid); err != nil {
		return nil, apperr.Conflict(op, msgAlreadyPaid)
	}

	settings, err := s.Settings.GetSettings(ctx)
	if err != nil {
		return nil, s.persistence(op, err)
	}

	payment := models.Payment{
		Mode:         mode,
		AmountPaid:   req.AmountPaid,
		ChangeAmount: req.ChangeAmount,
		PaidAt:       s.now(),
	}
	ok, err := s.DB.MarkOrderPaid(ctx, order.ID, payment)
	if err != nil {
		return nil, s.persistence(op, err)
	}
	if !ok {
		return nil, apperr.Conflict(op, msgAlreadyPaid)
	}
	s.Logger.LogOrder("paid", order.ID, fmt.Sprintf("%s %.2f", mode, req.AmountPaid))

	items := s.decodeItems(order)
	ticket := receipt.Ticket{
		OrderID:     order.ID,
		TableName:   s.tableLabel(order),
		Items:       items,
		Notes:       order.Notes,
		PaymentMode: mode,
		AmountPaid:  req.AmountPaid,
		Change:      req.ChangeAmount,
		PaidAt:      payment.PaidAt,
	}
	outcome := s.printWith(ctx, *settings, receipt.KindShop, ticket, settings.ShopPrinter)

	s.publish(ctx, events.ForOrder(events.OrdersUpdated, order.ID))
	if s.Sales != nil {
		s.Sales.RecordSale(ctx, models.SaleRecord{
			OrderID:     order.ID,
			TableName:   ticket.TableName,
			Items:       items,
			Total:       order.Price,
			AmountPaid:  req.AmountPaid,
			Change:      req.ChangeAmount,
			PaymentMode: mode,
			PaidAt:      payment.PaidAt,
		})
	}

	return &models.PaymentResult{
		Success:     true,
		Message:     msgPaymentDone,
		PrintStatus: models.PrintStatus{Shop: outcome.Message},
	}, nil
}

// ---------------- LISTINGS ----------------

// FetchOngoing returns pending orders oldest first with their items decoded.
func (s *OrderService) FetchOngoing(ctx context.Context) ([]models.Order, error) {
	orders, err := s.DB.GetPendingOrders(ctx)
	if err != nil {
		return nil, s.persistence("FetchOngoing", err)
	}
	for i := range orders {
		orders[i].Items = s.decodeItems(&orders[i])
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// FetchPast returns paid orders between two local calendar days, both inclusive.
// Either bound may be empty.
func (s *OrderService) FetchPast(ctx context.Context, dateFrom, dateTo string) ([]models.PastOrder, error) {
	const op = "FetchPast"

	from := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	if strings.TrimSpace(dateFrom) != "" {
		d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(dateFrom), s.Location)
		if err != nil {
			return nil, apperr.Validation(op, "Invalid dateFrom %q, expected YYYY-MM-DD.", dateFrom)
		}
		from = d
	}
	if strings.TrimSpace(dateTo) != "" {
		d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(dateTo), s.Location)
		if err != nil {
			return nil, apperr.Validation(op, "Invalid dateTo %q, expected YYYY-MM-DD.", dateTo)
		}
		to = d.AddDate(0, 0, 1).Add(-time.Second)
	}

	orders, err := s.DB.GetPaidOrders(ctx, from, to)
	if err != nil {
		return nil, s.persistence(op, err)
	}

	past := make([]models.PastOrder, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		p := models.PastOrder{
			ID:       o.ID,
			Price:    o.Price,
			Products: s.decodeItems(o),
			DeskName: s.tableLabel(o),
			PaidAt:   o.Timestamp,
		}
		if o.PaymentMode != nil {
			p.PaymentMode = *o.PaymentMode
		}
		past = append(past, p)
	}
	return past, nil
}

// ---------------- REMOVAL ----------------

func (s *OrderService) RemoveOrder(ctx context.Context, id int64) error {
	const op = "RemoveOrder"
	if id <= 0 {
		return apperr.Validation(op, "Invalid order id.")
	}
	n, err := s.DB.DeleteOrder(ctx, id)
	if err != nil {
		return s.persistence(op, err)
	}
	if n == 0 {
		return apperr.NotFound(op, msgOrderNotFound)
	}
	s.Logger.LogOrder("removed", id, "deleted")
	s.publish(ctx, events.ForOrder(events.OrdersUpdated, id))
	return nil
}

// ClearOrders deletes every sale. It returns the number of rows removed.
func (s *OrderService) ClearOrders(ctx context.Context) (int64, error) {
	n, err := s.DB.DeleteAllOrders(ctx)
	if err != nil {
		return 0, s.persistence("ClearOrders", err)
	}
	s.Logger.Warn("ORDER", fmt.Sprintf("Cleared %d sales rows", n))
	s.publish(ctx, events.New(events.DatabaseCleared))
	return n, nil
}

// ---------------- HELPERS ----------------

func (s *OrderService) printTicket(ctx context.Context, kind receipt.Kind, t receipt.Ticket, dest func(models.Settings) string) printer.Outcome {
	settings, err := s.Settings.GetSettings(ctx)
	if err != nil {
		s.Logger.Error("PRINT", fmt.Sprintf("Could not load settings for %s ticket #%d: %v", kind, t.OrderID, err))
		return printer.Outcome{Status: printer.StatusFailed, Message: "Failed: could not load printer settings"}
	}
	return s.printWith(ctx, *settings, kind, t, dest(*settings))
}

func (s *OrderService) printWith(ctx context.Context, settings models.Settings, kind receipt.Kind, t receipt.Ticket, destination string) printer.Outcome {
	if !printer.IsConfigured(destination) {
		return s.Printer.Print(ctx, destination, receipt.Document{Kind: kind})
	}
	doc, err := s.Renderer.Render(kind, t, settings, settings.Currency(s.DefaultCurrency))
	if err != nil {
		s.Logger.Error("PRINT", fmt.Sprintf("Render %s ticket #%d: %v", kind, t.OrderID, err))
		return printer.Outcome{Status: printer.StatusFailed, Destination: destination, Message: fmt.Sprintf("Failed: %s", apperr.Message(err))}
	}
	return s.Printer.Print(ctx, destination, doc)
}

// decodeItems never fails: a malformed products column yields no items.
func (s *OrderService) decodeItems(o *models.Order) []models.LineItem {
	items, err := models.DecodeItems(o.Products)
	if err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("Order #%d has malformed products: %v", o.ID, err))
		return []models.LineItem{}
	}
	return items
}

func (s *OrderService) tableLabel(o *models.Order) string {
	if o.TableName != "" {
		return o.TableName
	}
	if o.DeskID != nil {
		return fmt.Sprintf("Table ID %d", *o.DeskID)
	}
	return "N/A"
}

func (s *OrderService) publish(ctx context.Context, ev events.Event) {
	if s.Events != nil {
		s.Events.Publish(ctx, ev)
	}
}

func (s *OrderService) persistence(op string, err error) error {
	s.Logger.Error("DATABASE", fmt.Sprintf("%s: %v", op, err))
	return apperr.Persistence(op, err)
}
