package settings

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/uptrace/bun"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
)

// MsgUpdated is shown after a successful save.
const MsgUpdated = "Settings updated successfully."

// Service owns the shop settings: identity, currency, tax, discount and printers.
type Service struct {
	db       *DB
	events   events.Publisher
	logger   *logger.Logger
	fallback string
}

func NewService(db *bun.DB, publisher events.Publisher, log *logger.Logger) *Service {
	return &Service{
		db:       NewDB(db),
		events:   publisher,
		logger:   log,
		fallback: models.DefaultCurrency,
	}
}

// WithDefaultCurrency sets the symbol GetCurrency falls back to.
func (s *Service) WithDefaultCurrency(symbol string) *Service {
	if symbol = strings.TrimSpace(symbol); symbol != "" {
		s.fallback = symbol
		s.db.currency = symbol
	}
	return s
}

func (s *Service) GetSettings(ctx context.Context) (*models.Settings, error) {
	settings, err := s.db.GetSettings(ctx)
	if err != nil {
		s.logger.Error("SETTINGS", fmt.Sprintf("GetSettings: %v", err))
		return nil, apperr.Persistence("GetSettings", err)
	}
	return settings, nil
}

// UpdateSettings replaces the settings wholesale and announces settings-updated.
func (s *Service) UpdateSettings(ctx context.Context, in models.SettingsUpdate) (*models.Settings, error) {
	const op = "UpdateSettings"

	if err := validateRate("Tax rate", in.TaxRate); err != nil {
		return nil, apperr.Validation(op, "%v", err)
	}
	if err := validateRate("Discount rate", in.DiscountRate); err != nil {
		return nil, apperr.Validation(op, "%v", err)
	}

	settings := in.Settings()
	if err := s.db.SaveSettings(ctx, settings); err != nil {
		s.logger.Error("SETTINGS", fmt.Sprintf("%s: %v", op, err))
		return nil, apperr.Persistence(op, err)
	}
	s.logger.Info("SETTINGS", fmt.Sprintf("Settings updated (shop printer %q, kitchen printer %q)", settings.ShopPrinter, settings.KitchenPrinter))

	if s.events != nil {
		s.events.Publish(ctx, events.New(events.SettingsUpdated))
	}
	return settings, nil
}

// GetCurrency never fails: a read error or blank symbol yields the default.
func (s *Service) GetCurrency(ctx context.Context) string {
	settings, err := s.db.GetSettings(ctx)
	if err != nil {
		s.logger.Warn("SETTINGS", fmt.Sprintf("GetCurrency: %v", err))
		return s.fallback
	}
	if c := strings.TrimSpace(settings.CurrencySymbol); c != "" {
		return c
	}
	return s.fallback
}

func validateRate(label string, rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 100 {
		return fmt.Errorf("%s must be between 0 and 100.", label)
	}
	return nil
}
