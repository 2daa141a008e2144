package users

import (
	"context"

	"github.com/uptrace/bun"

	"wildcafe-pos/internal/models"
)

type DB struct {
	bun *bun.DB
}

func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := db.bun.NewSelect().Model(&users).Order("id").Scan(ctx)
	return users, err
}

func (db *DB) InsertUser(ctx context.Context, u *models.User) error {
	_, err := db.bun.NewInsert().Model(u).Exec(ctx)
	return err
}

func (db *DB) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := db.bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("password = ?", hash).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
