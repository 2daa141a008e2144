package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
)

const dateLayout = "2006-01-02"

// RowSource reads paid sales for a report window [start, end).
type RowSource interface {
	GetReportRows(ctx context.Context, kind models.ReportKind, start, end time.Time) ([]models.ReportRow, error)
}

// ProductLister resolves item names to categories.
type ProductLister interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// Service handles report operations
type Service struct {
	Rows     RowSource
	Products ProductLister
	Logger   *logger.Logger
	Location *time.Location
}

func NewService(rows RowSource, products ProductLister, log *logger.Logger) *Service {
	return &Service{Rows: rows, Products: products, Logger: log, Location: time.Local}
}

// FetchReport returns raw rows of kind for paid sales from startDate through
// endDate, both inclusive calendar days.
func (s *Service) FetchReport(ctx context.Context, kind, startDate, endDate string) ([]models.ReportRow, error) {
	const op = "FetchReport"

	k := models.ReportKind(strings.ToLower(strings.TrimSpace(kind)))
	if !k.Valid() {
		return nil, apperr.Validation(op, "Invalid report type.")
	}
	start, end, err := s.window(op, startDate, endDate)
	if err != nil {
		return nil, err
	}

	rows, err := s.Rows.GetReportRows(ctx, k, start, end)
	if err != nil {
		s.Logger.Error("REPORT", fmt.Sprintf("Error fetching %s report: %v", k, err))
		return nil, apperr.Persistence(op, err)
	}

	if k == models.ReportItems || k == models.ReportCategories {
		for i := range rows {
			items, err := models.DecodeItems(rows[i].Products)
			if err != nil {
				s.Logger.Warn("REPORT", fmt.Sprintf("Sale #%d has malformed products: %v", rows[i].ID, err))
				items = []models.LineItem{}
			}
			rows[i].Items = items
		}
	}
	s.Logger.Debug("REPORT", fmt.Sprintf("%s report %s..%s: %d rows", k, startDate, endDate, len(rows)))
	return rows, nil
}

// FetchSummary fetches the rows of kind and aggregates them.
func (s *Service) FetchSummary(ctx context.Context, kind, startDate, endDate string) (*Summary, error) {
	rows, err := s.FetchReport(ctx, kind, startDate, endDate)
	if err != nil {
		return nil, err
	}
	k := models.ReportKind(strings.ToLower(strings.TrimSpace(kind)))

	var products []models.Product
	if k == models.ReportCategories && s.Products != nil {
		products, err = s.Products.ListProducts(ctx)
		if err != nil {
			return nil, apperr.Persistence("FetchSummary", err)
		}
	}
	sum := Summarize(k, rows, products, s.Location)
	sum.StartDate = startDate
	sum.EndDate = endDate
	return sum, nil
}

func (s *Service) window(op, startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(startDate), s.Location)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation(op, "Invalid startDate %q, expected YYYY-MM-DD.", startDate)
	}
	end, err := time.ParseInLocation(dateLayout, strings.TrimSpace(endDate), s.Location)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation(op, "Invalid endDate %q, expected YYYY-MM-DD.", endDate)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperr.Validation(op, "endDate is before startDate.")
	}
	return start, end.AddDate(0, 0, 1), nil
}
