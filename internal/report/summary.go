package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"wildcafe-pos/internal/models"
)

const uncategorized = "Uncategorized"

// Summary aggregates a report. Only the sections that apply to Kind are set.
type Summary struct {
	Kind      models.ReportKind `json:"kind"`
	StartDate string            `json:"start_date,omitempty"`
	EndDate   string            `json:"end_date,omitempty"`

	OrderCount    int     `json:"order_count"`
	Revenue       float64 `json:"revenue"`
	AverageTicket float64 `json:"average_ticket,omitempty"`

	ByPaymentMode []Bucket `json:"by_payment_mode,omitempty"`
	Daily         []Bucket `json:"daily,omitempty"`
	Items         []Bucket `json:"items,omitempty"`
	Categories    []Bucket `json:"categories,omitempty"`
	Tables        []Bucket `json:"tables,omitempty"`
}

// Bucket is one line of an aggregate: a payment mode, day, item, category or table.
type Bucket struct {
	Key     string  `json:"key"`
	Orders  int     `json:"orders,omitempty"`
	Qty     int     `json:"qty,omitempty"`
	Revenue float64 `json:"revenue"`
}

// Summarize aggregates rows of one kind. products is only used for categories,
// where an item name is matched against the current menu.
func Summarize(kind models.ReportKind, rows []models.ReportRow, products []models.Product, loc *time.Location) *Summary {
	if loc == nil {
		loc = time.Local
	}
	sum := &Summary{Kind: kind}
	orders := map[int64]struct{}{}

	switch kind {
	case models.ReportSales:
		modes := newTally()
		days := newTally()
		for _, r := range rows {
			orders[r.ID] = struct{}{}
			sum.Revenue += r.TotalPrice
			mode := strings.TrimSpace(r.PaymentMode)
			if mode == "" {
				mode = "Unknown"
			}
			modes.add(mode, 1, 0, r.TotalPrice)
			days.add(r.Timestamp.In(loc).Format(dateLayout), 1, 0, r.TotalPrice)
		}
		sum.ByPaymentMode = modes.byRevenue()
		sum.Daily = days.byKey()

	case models.ReportItems:
		items := newTally()
		for _, r := range rows {
			orders[r.ID] = struct{}{}
			for _, it := range r.Items {
				items.add(it.Name, 0, it.Qty, it.Total())
				sum.Revenue += it.Total()
			}
		}
		sum.Items = items.byRevenue()

	case models.ReportCategories:
		byName := make(map[string]string, len(products))
		for _, p := range products {
			if c := strings.TrimSpace(p.Category); c != "" {
				byName[p.Name] = c
			}
		}
		cats := newTally()
		for _, r := range rows {
			orders[r.ID] = struct{}{}
			for _, it := range r.Items {
				cat, ok := byName[it.Name]
				if !ok {
					cat = uncategorized
				}
				cats.add(cat, 0, it.Qty, it.Total())
				sum.Revenue += it.Total()
			}
		}
		sum.Categories = cats.byRevenue()

	case models.ReportTables:
		tables := newTally()
		for _, r := range rows {
			orders[r.ID] = struct{}{}
			sum.Revenue += r.TotalPrice
			tables.add(tableLabel(r), 1, 0, r.TotalPrice)
		}
		sum.Tables = tables.byRevenue()
	}

	sum.OrderCount = len(orders)
	if sum.OrderCount > 0 && kind == models.ReportSales {
		sum.AverageTicket = sum.Revenue / float64(sum.OrderCount)
	}
	return sum
}

func tableLabel(r models.ReportRow) string {
	if r.TableName != "" {
		return r.TableName
	}
	if r.DeskID != nil {
		return "Table ID " + strconv.FormatInt(*r.DeskID, 10)
	}
	return "N/A"
}

type tally struct {
	order   []string
	buckets map[string]*Bucket
}

func newTally() *tally {
	return &tally{buckets: map[string]*Bucket{}}
}

func (t *tally) add(key string, orders, qty int, revenue float64) {
	b, ok := t.buckets[key]
	if !ok {
		b = &Bucket{Key: key}
		t.buckets[key] = b
		t.order = append(t.order, key)
	}
	b.Orders += orders
	b.Qty += qty
	b.Revenue += revenue
}

func (t *tally) list() []Bucket {
	out := make([]Bucket, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, *t.buckets[k])
	}
	return out
}

// byRevenue sorts highest revenue first, ties by key.
func (t *tally) byRevenue() []Bucket {
	out := t.list()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (t *tally) byKey() []Bucket {
	out := t.list()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
