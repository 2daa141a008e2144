package receipt

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/models"
)

type Kind string

const (
	KindKitchen Kind = "kitchen"
	KindShop    Kind = "shop"
)

//go:embed templates/*.html
var templateFS embed.FS

// Ticket is the order snapshot a document is rendered from.
type Ticket struct {
	OrderID     int64
	TableName   string
	Items       []models.LineItem
	Notes       string
	PaymentMode string
	AmountPaid  float64
	Change      float64
	PaidAt      time.Time
}

// Document is a rendered receipt ready for the print sink.
type Document struct {
	Kind    Kind
	Title   string
	HTML    string
	WidthMM float64
}

type Renderer struct {
	tmpl           *template.Template
	KitchenWidthMM float64
	ShopWidthMM    float64
	// QR adds an order reference QR code to customer receipts.
	QR bool
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("receipt").
		Funcs(template.FuncMap{
			"money": FormatMoney,
			"rate":  formatRate,
		}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse receipt templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, KitchenWidthMM: 58, ShopWidthMM: 80, QR: true}, nil
}

type lineView struct {
	Qty   int
	Name  string
	Total float64
}

type view struct {
	WidthMM  float64
	Shop     models.Settings
	Currency string
	Table    string
	OrderRef string
	Date     string
	Lines    []lineView
	Notes    string
	Totals   Totals
	ShowDisc bool
	ShowTax  bool
	PaidBy   string
	Paid     float64
	Change   float64
	QR       template.URL
}

// Render produces the kitchen ticket or the customer receipt. It has no side effects.
func (r *Renderer) Render(kind Kind, t Ticket, s models.Settings, currency string) (Document, error) {
	v := view{
		Shop:     withFallbacks(s),
		Currency: currency,
		Table:    orDefault(t.TableName, "N/A"),
		OrderRef: "N/A",
		Notes:    strings.TrimSpace(t.Notes),
	}
	if t.OrderID > 0 {
		v.OrderRef = strconv.FormatInt(t.OrderID, 10)
	}
	for _, it := range t.Items {
		v.Lines = append(v.Lines, lineView{Qty: it.Qty, Name: it.Name, Total: it.Total()})
	}

	var name string
	doc := Document{Kind: kind}
	switch kind {
	case KindKitchen:
		name = "kitchen.html"
		doc.WidthMM = r.KitchenWidthMM
		doc.Title = fmt.Sprintf("Kitchen #%s", v.OrderRef)
	case KindShop:
		name = "shop.html"
		doc.WidthMM = r.ShopWidthMM
		doc.Title = fmt.Sprintf("Receipt #%s", v.OrderRef)
		v.Totals = Compute(t.Items, s)
		v.ShowDisc = s.DiscountEnabled && s.DiscountRate > 0
		v.ShowTax = s.TaxEnabled
		v.PaidBy = orDefault(t.PaymentMode, "N/A")
		v.Paid = t.AmountPaid
		v.Change = t.Change
		if !t.PaidAt.IsZero() {
			v.Date = t.PaidAt.Format("2006-01-02 15:04:05")
		}
		if r.QR && t.OrderID > 0 {
			qr, err := qrDataURI(fmt.Sprintf("ORDER#%d", t.OrderID))
			if err != nil {
				return Document{}, apperr.Render("Render", err)
			}
			v.QR = qr
		}
	default:
		return Document{}, apperr.Render("Render", fmt.Errorf("unknown receipt kind %q", kind))
	}
	v.WidthMM = doc.WidthMM

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, v); err != nil {
		return Document{}, apperr.Render("Render", err)
	}
	doc.HTML = buf.String()
	return doc, nil
}

func qrDataURI(content string) (template.URL, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 128)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}

func withFallbacks(s models.Settings) models.Settings {
	s.Name = orDefault(s.Name, "WILD CAFE ELLA POS")
	s.Address = orDefault(s.Address, "Address not set")
	s.PhoneNumber = orDefault(s.PhoneNumber, "N/A")
	s.Email = orDefault(s.Email, "N/A")
	return s
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func formatRate(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
