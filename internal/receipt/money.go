package receipt

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"wildcafe-pos/internal/models"
)

// FormatMoney renders v with two decimals. Anything that is not a finite
// number renders as 0.00.
func FormatMoney(v interface{}) string {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return "0.00"
	}
	s := strconv.FormatFloat(f, 'f', 2, 64)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Totals is the money summary printed on a customer receipt.
type Totals struct {
	Subtotal     float64
	DiscountRate float64
	Discount     float64
	Taxable      float64
	TaxRate      float64
	Tax          float64
	Total        float64
}

// Compute applies the flat discount then the flat tax. Disabled adjustments count as zero.
func Compute(items []models.LineItem, s models.Settings) Totals {
	var t Totals
	for _, it := range items {
		t.Subtotal += it.Total()
	}
	if s.DiscountEnabled {
		t.DiscountRate = s.DiscountRate
		t.Discount = t.Subtotal * s.DiscountRate / 100
	}
	t.Taxable = t.Subtotal - t.Discount
	if s.TaxEnabled {
		t.TaxRate = s.TaxRate
		t.Tax = t.Taxable * s.TaxRate / 100
	}
	t.Total = t.Taxable + t.Tax
	return t
}
