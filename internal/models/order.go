package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusPaid    OrderStatus = "paid"
)

// TransitionTo returns next if moving from s to next is legal.
// pending -> paid is the only transition an order ever makes.
func (s OrderStatus) TransitionTo(next OrderStatus) (OrderStatus, error) {
	if s == StatusPending && next == StatusPaid {
		return next, nil
	}
	return s, fmt.Errorf("illegal order transition %q -> %q", s, next)
}

// LineItem is a snapshot of a product taken when the order is placed.
// It is never a reference to the products table.
type LineItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

func (li LineItem) Total() float64 {
	return li.Price * float64(li.Qty)
}

// Order is a row of the sales table.
type Order struct {
	bun.BaseModel `bun:"table:sales,alias:s"`

	ID           int64       `bun:"id,pk,autoincrement" json:"id"`
	Products     string      `bun:"products,type:text,notnull" json:"-"`
	Price        float64     `bun:"price" json:"price"`
	DeskID       *int64      `bun:"desk_id" json:"desk_id"`
	Status       OrderStatus `bun:"status,notnull" json:"status"`
	PaymentMode  *string     `bun:"payment_mode" json:"payment_mode,omitempty"`
	ChangeAmount *float64    `bun:"change_amount" json:"change_amount,omitempty"`
	Notes        string      `bun:"notes,nullzero" json:"notes,omitempty"`
	Timestamp    time.Time   `bun:"timestamp,notnull" json:"timestamp"`
	CreatedAt    time.Time   `bun:"created_at,notnull" json:"created_at"`

	TableName string     `bun:"table_name,scanonly" json:"table_name,omitempty"`
	Items     []LineItem `bun:"-" json:"products"`
}

// EncodeItems serializes line items for the products column.
func EncodeItems(items []LineItem) (string, error) {
	if items == nil {
		items = []LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeItems parses the products column.
func DecodeItems(raw string) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

// KitchenOrderRequest is the body of send-order-to-kitchen.
type KitchenOrderRequest struct {
	Products []LineItem `json:"products"`
	Price    float64    `json:"price"`
	DeskID   *int64     `json:"desk_id"`
	Notes    string     `json:"notes,omitempty"`
}

// PaymentRequest is the body of confirm-order-payment.
type PaymentRequest struct {
	OrderID      int64   `json:"order_id"`
	PaymentMode  string  `json:"payment_mode"`
	AmountPaid   float64 `json:"amount_paid"`
	ChangeAmount float64 `json:"change_amount"`
}

// Payment holds the facts persisted when an order is paid.
type Payment struct {
	Mode         string
	AmountPaid   float64
	ChangeAmount float64
	PaidAt       time.Time
}

type PrintStatus struct {
	Kitchen string `json:"kitchen,omitempty"`
	Shop    string `json:"shop,omitempty"`
}

type KitchenOrderResult struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	NewOrderID  int64       `json:"new_order_id"`
	PrintStatus PrintStatus `json:"print_status"`
}

type PaymentResult struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	PrintStatus PrintStatus `json:"print_status"`
}

// PastOrder is the shape returned by fetch-past-orders.
type PastOrder struct {
	ID          int64      `json:"id"`
	Price       float64    `json:"price"`
	Products    []LineItem `json:"products"`
	DeskName    string     `json:"desk_name"`
	PaymentMode string     `json:"payment_mode"`
	PaidAt      time.Time  `json:"paid_at"`
}

// SaleRecord is emitted to the sales feed once an order is paid.
type SaleRecord struct {
	OrderID     int64      `json:"order_id"`
	TableName   string     `json:"table_name"`
	Items       []LineItem `json:"items"`
	Total       float64    `json:"total"`
	AmountPaid  float64    `json:"amount_paid"`
	Change      float64    `json:"change"`
	PaymentMode string     `json:"payment_mode"`
	PaidAt      time.Time  `json:"paid_at"`
}
