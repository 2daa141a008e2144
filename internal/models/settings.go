package models

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

const (
	SettingsID      = 1
	DefaultCurrency = "Rs"
	PrinterNone     = "none"
)

// Settings is the singleton shop configuration row.
type Settings struct {
	bun.BaseModel `bun:"table:settings"`

	ID              int64   `bun:"id,pk" json:"-"`
	Name            string  `bun:"name" json:"name"`
	Address         string  `bun:"address" json:"address"`
	PhoneNumber     string  `bun:"phone_number" json:"phone_number"`
	Email           string  `bun:"email" json:"email"`
	CurrencySymbol  string  `bun:"currency_symbol" json:"currency_symbol"`
	TaxEnabled      bool    `bun:"tax_enabled,notnull" json:"tax_enabled"`
	TaxRate         float64 `bun:"tax_rate,notnull" json:"tax_rate"`
	DiscountEnabled bool    `bun:"discount_enabled,notnull" json:"discount_enabled"`
	DiscountRate    float64 `bun:"discount_rate,notnull" json:"discount_rate"`
	ShopPrinter     string  `bun:"shop_printer" json:"shop_printer"`
	KitchenPrinter  string  `bun:"kitchen_printer" json:"kitchen_printer"`
}

func DefaultSettings() *Settings {
	return &Settings{
		ID:             SettingsID,
		Name:           "WILD CAFE ELLA POS",
		CurrencySymbol: DefaultCurrency,
		ShopPrinter:    PrinterNone,
		KitchenPrinter: PrinterNone,
	}
}

// Currency returns the trimmed currency symbol, else fallback, else DefaultCurrency.
func (s Settings) Currency(fallback string) string {
	if c := strings.TrimSpace(s.CurrencySymbol); c != "" {
		return c
	}
	if f := strings.TrimSpace(fallback); f != "" {
		return f
	}
	return DefaultCurrency
}

// Flag is a bool that also accepts 0/1 and "on"/"off" style values, the way
// checkbox state arrives from the settings screen.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	switch strings.ToLower(raw) {
	case "true", "1", "on", "yes":
		*f = true
	case "false", "0", "off", "no", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", string(b))
	}
	return nil
}

// SettingsUpdate replaces every settings field at once.
type SettingsUpdate struct {
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	PhoneNumber     string  `json:"phone_number"`
	Email           string  `json:"email"`
	CurrencySymbol  string  `json:"currency_symbol"`
	TaxEnabled      Flag    `json:"tax_enabled"`
	TaxRate         float64 `json:"tax_rate"`
	DiscountEnabled Flag    `json:"discount_enabled"`
	DiscountRate    float64 `json:"discount_rate"`
	ShopPrinter     string  `json:"shop_printer"`
	KitchenPrinter  string  `json:"kitchen_printer"`
}

func (u SettingsUpdate) Settings() *Settings {
	return &Settings{
		ID:              SettingsID,
		Name:            strings.TrimSpace(u.Name),
		Address:         strings.TrimSpace(u.Address),
		PhoneNumber:     strings.TrimSpace(u.PhoneNumber),
		Email:           strings.TrimSpace(u.Email),
		CurrencySymbol:  strings.TrimSpace(u.CurrencySymbol),
		TaxEnabled:      bool(u.TaxEnabled),
		TaxRate:         u.TaxRate,
		DiscountEnabled: bool(u.DiscountEnabled),
		DiscountRate:    u.DiscountRate,
		ShopPrinter:     strings.TrimSpace(u.ShopPrinter),
		KitchenPrinter:  strings.TrimSpace(u.KitchenPrinter),
	}
}
