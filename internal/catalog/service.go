package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/uptrace/bun"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/database"
	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
)

const (
	msgCategoryExists = "Category already exists"
	msgTableExists    = "Table name already exists"
	msgNameTaken      = "Name already taken"
	msgNameRequired   = "Name is required."
)

// Service manages the menu, its categories and the dining tables.
type Service struct {
	db     *DB
	events events.Publisher
	logger *logger.Logger
}

func NewService(db *bun.DB, publisher events.Publisher, log *logger.Logger) *Service {
	return &Service{db: NewDB(db), events: publisher, logger: log}
}

// ---------------- PRODUCTS ----------------

// ListProducts returns the whole menu ordered by category, then name.
func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.db.ListProducts(ctx)
	if err != nil {
		return nil, s.persistence("ListProducts", err)
	}
	return products, nil
}

// FetchMenu is what the order screen calls; it is the same list.
func (s *Service) FetchMenu(ctx context.Context) ([]models.Product, error) {
	return s.ListProducts(ctx)
}

func (s *Service) AddProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	const op = "AddProduct"
	p, err := productFrom(op, in)
	if err != nil {
		return nil, err
	}
	if err := s.db.InsertProduct(ctx, p); err != nil {
		return nil, s.persistence(op, err)
	}
	s.logger.LogDatabase("INSERT", "products", fmt.Sprintf("#%d %s", p.ID, p.Name))
	s.publish(ctx, events.MenuUpdated)
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	const op = "UpdateProduct"
	p, err := productFrom(op, in)
	if err != nil {
		return nil, err
	}
	p.ID = id
	n, err := s.db.UpdateProduct(ctx, p)
	if err != nil {
		return nil, s.persistence(op, err)
	}
	if n == 0 {
		return nil, apperr.NotFound(op, "Product #%d not found.", id)
	}
	s.logger.LogDatabase("UPDATE", "products", fmt.Sprintf("#%d %s", p.ID, p.Name))
	s.publish(ctx, events.MenuUpdated)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	const op = "DeleteProduct"
	n, err := s.db.DeleteProduct(ctx, id)
	if err != nil {
		return s.persistence(op, err)
	}
	if n == 0 {
		return apperr.NotFound(op, "Product #%d not found.", id)
	}
	s.logger.LogDatabase("DELETE", "products", fmt.Sprintf("#%d", id))
	s.publish(ctx, events.MenuUpdated)
	return nil
}

func productFrom(op string, in models.ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation(op, msgNameRequired)
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price < 0 {
		return nil, apperr.Validation(op, "Price must be zero or more.")
	}
	icon := strings.TrimSpace(in.IconClass)
	if icon == "" {
		icon = models.DefaultProductIcon
	}
	return &models.Product{
		Name:     name,
		Code:     strings.TrimSpace(in.Code),
		Category: strings.TrimSpace(in.Category),
		Price:    in.Price,
		Image:    icon,
	}, nil
}

// ---------------- CATEGORIES ----------------

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.db.ListCategories(ctx)
	if err != nil {
		return nil, s.persistence("ListCategories", err)
	}
	return categories, nil
}

func (s *Service) AddCategory(ctx context.Context, name string) (*models.Category, error) {
	const op = "AddCategory"
	c := &models.Category{Name: strings.TrimSpace(name)}
	if c.Name == "" {
		return nil, apperr.Validation(op, msgNameRequired)
	}
	if err := s.db.InsertCategory(ctx, c); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict(op, msgCategoryExists)
		}
		return nil, s.persistence(op, err)
	}
	s.publish(ctx, events.CategoriesUpdated)
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, name string) (*models.Category, error) {
	const op = "UpdateCategory"
	c := &models.Category{ID: id, Name: strings.TrimSpace(name)}
	if c.Name == "" {
		return nil, apperr.Validation(op, msgNameRequired)
	}
	n, err := s.db.RenameCategory(ctx, c)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict(op, msgNameTaken)
		}
		return nil, s.persistence(op, err)
	}
	if n == 0 {
		return nil, apperr.NotFound(op, "Category #%d not found.", id)
	}
	s.publish(ctx, events.CategoriesUpdated)
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	const op = "DeleteCategory"
	n, err := s.db.DeleteCategory(ctx, id)
	if err != nil {
		return s.persistence(op, err)
	}
	if n == 0 {
		return apperr.NotFound(op, "Category #%d not found.", id)
	}
	s.publish(ctx, events.CategoriesUpdated)
	return nil
}

// ---------------- TABLES ----------------

func (s *Service) ListTables(ctx context.Context) ([]models.Desk, error) {
	desks, err := s.db.ListDesks(ctx)
	if err != nil {
		return nil, s.persistence("ListTables", err)
	}
	return desks, nil
}

func (s *Service) AddTable(ctx context.Context, name string) (*models.Desk, error) {
	const op = "AddTable"
	d := &models.Desk{Name: strings.TrimSpace(name)}
	if d.Name == "" {
		return nil, apperr.Validation(op, msgNameRequired)
	}
	if err := s.db.InsertDesk(ctx, d); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict(op, msgTableExists)
		}
		return nil, s.persistence(op, err)
	}
	s.publish(ctx, events.TablesAdded)
	return d, nil
}

func (s *Service) UpdateTable(ctx context.Context, id int64, name string) (*models.Desk, error) {
	const op = "UpdateTable"
	d := &models.Desk{ID: id, Name: strings.TrimSpace(name)}
	if d.Name == "" {
		return nil, apperr.Validation(op, msgNameRequired)
	}
	n, err := s.db.RenameDesk(ctx, d)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict(op, msgNameTaken)
		}
		return nil, s.persistence(op, err)
	}
	if n == 0 {
		return nil, apperr.NotFound(op, "Table #%d not found.", id)
	}
	s.publish(ctx, events.TablesUpdated)
	return d, nil
}

// DeleteTable removes a table. Past sales on it are kept and show "Table ID n".
func (s *Service) DeleteTable(ctx context.Context, id int64) error {
	const op = "DeleteTable"
	n, err := s.db.DeleteDesk(ctx, id)
	if err != nil {
		return s.persistence(op, err)
	}
	if n == 0 {
		return apperr.NotFound(op, "Table #%d not found.", id)
	}
	s.publish(ctx, events.TablesUpdated)
	return nil
}

func (s *Service) publish(ctx context.Context, topic events.Topic) {
	if s.events != nil {
		s.events.Publish(ctx, events.New(topic))
	}
}

func (s *Service) persistence(op string, err error) error {
	s.logger.Error("DATABASE", fmt.Sprintf("%s: %v", op, err))
	return apperr.Persistence(op, err)
}
