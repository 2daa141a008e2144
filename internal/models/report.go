package models

import "time"

type ReportKind string

const (
	ReportSales      ReportKind = "sales"
	ReportItems      ReportKind = "items"
	ReportCategories ReportKind = "categories"
	ReportTables     ReportKind = "tables"
)

func (k ReportKind) Valid() bool {
	switch k {
	case ReportSales, ReportItems, ReportCategories, ReportTables:
		return true
	}
	return false
}

// ReportRow is one paid sale as seen by a report. Which fields are filled
// depends on the report kind.
type ReportRow struct {
	ID          int64      `bun:"id" json:"id,omitempty"`
	DeskID      *int64     `bun:"desk_id" json:"desk_id,omitempty"`
	TableName   string     `bun:"table_name" json:"table_name,omitempty"`
	PaymentMode string     `bun:"payment_mode" json:"payment_mode,omitempty"`
	TotalPrice  float64    `bun:"total_price" json:"total_price,omitempty"`
	Timestamp   time.Time  `bun:"timestamp" json:"timestamp,omitempty"`
	Status      string     `bun:"status" json:"status,omitempty"`
	Products    string     `bun:"products" json:"-"`
	Items       []LineItem `bun:"-" json:"products,omitempty"`
}
