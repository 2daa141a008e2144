package settings

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"wildcafe-pos/internal/models"
)

// DB reads and writes the single settings row.
type DB struct {
	bun      *bun.DB
	currency string
}

func NewDB(db *bun.DB) *DB {
	return &DB{bun: db, currency: models.DefaultCurrency}
}

// GetSettings returns the settings row, or the defaults when it was never written.
func (db *DB) GetSettings(ctx context.Context) (*models.Settings, error) {
	var s models.Settings
	err := db.bun.NewSelect().
		Model(&s).
		Where("id = ?", models.SettingsID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := models.DefaultSettings()
		defaults.CurrencySymbol = db.currency
		return defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSettings overwrites every column of the settings row, creating it if needed.
func (db *DB) SaveSettings(ctx context.Context, s *models.Settings) error {
	s.ID = models.SettingsID
	res, err := db.bun.NewUpdate().
		Model(s).
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = db.bun.NewInsert().Model(s).Exec(ctx)
	return err
}
