package catalog

import (
	"context"

	"github.com/uptrace/bun"

	"wildcafe-pos/internal/models"
)

// DB handles products, category and desk rows.
type DB struct {
	bun *bun.DB
}

func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// ---------------- PRODUCTS ----------------

func (db *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := db.bun.NewSelect().
		Model(&products).
		OrderExpr("category ASC, name ASC").
		Scan(ctx)
	return products, err
}

func (db *DB) InsertProduct(ctx context.Context, p *models.Product) error {
	_, err := db.bun.NewInsert().Model(p).Exec(ctx)
	return err
}

// UpdateProduct rewrites every editable column and returns the rows touched.
func (db *DB) UpdateProduct(ctx context.Context, p *models.Product) (int64, error) {
	res, err := db.bun.NewUpdate().
		Model(p).
		Column("name", "code", "category", "price", "image").
		WherePK().
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (db *DB) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	res, err := db.bun.NewDelete().
		Model((*models.Product)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---------------- CATEGORIES ----------------

func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := db.bun.NewSelect().
		Model(&categories).
		Order("name").
		Scan(ctx)
	return categories, err
}

func (db *DB) InsertCategory(ctx context.Context, c *models.Category) error {
	_, err := db.bun.NewInsert().Model(c).Exec(ctx)
	return err
}

func (db *DB) RenameCategory(ctx context.Context, c *models.Category) (int64, error) {
	res, err := db.bun.NewUpdate().
		Model(c).
		Column("name").
		WherePK().
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (db *DB) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	res, err := db.bun.NewDelete().
		Model((*models.Category)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---------------- DESKS ----------------

func (db *DB) ListDesks(ctx context.Context) ([]models.Desk, error) {
	desks := []models.Desk{}
	err := db.bun.NewSelect().
		Model(&desks).
		Order("name").
		Scan(ctx)
	return desks, err
}

func (db *DB) InsertDesk(ctx context.Context, d *models.Desk) error {
	_, err := db.bun.NewInsert().Model(d).Exec(ctx)
	return err
}

func (db *DB) RenameDesk(ctx context.Context, d *models.Desk) (int64, error) {
	res, err := db.bun.NewUpdate().
		Model(d).
		Column("name").
		WherePK().
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteDesk removes the desk only. Sales that reference it keep their desk_id.
func (db *DB) DeleteDesk(ctx context.Context, id int64) (int64, error) {
	res, err := db.bun.NewDelete().
		Model((*models.Desk)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
