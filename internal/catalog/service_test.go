package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/database/dbtest"
	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
)

type topicRecorder struct {
	mu     sync.Mutex
	topics []events.Topic
}

func (r *topicRecorder) Publish(_ context.Context, ev events.Event) {
	r.mu.Lock()
	r.topics = append(r.topics, ev.Topic)
	r.mu.Unlock()
}

func (r *topicRecorder) all() []events.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Topic(nil), r.topics...)
}

func newService(t *testing.T) (*Service, *topicRecorder) {
	t.Helper()
	rec := &topicRecorder{}
	return NewService(dbtest.New(t), rec, logger.New(nil)), rec
}

func TestProductsOrderedByCategoryThenName(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	for _, in := range []models.ProductInput{
		{Name: "Latte", Category: "Drinks", Price: 700, IconClass: "fas fa-mug-hot"},
		{Name: "Kottu", Category: "Mains", Price: 1200, Code: "K1"},
		{Name: "Espresso", Category: "Drinks", Price: 500},
	} {
		_, err := svc.AddProduct(ctx, in)
		require.NoError(t, err)
	}

	menu, err := svc.FetchMenu(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 3)
	assert.Equal(t, []string{"Espresso", "Latte", "Kottu"}, []string{menu[0].Name, menu[1].Name, menu[2].Name})
	assert.Equal(t, models.DefaultProductIcon, menu[0].Image)
	assert.Equal(t, "fas fa-mug-hot", menu[1].Image)
	assert.Equal(t, "K1", menu[2].Code)
	assert.Equal(t, []events.Topic{events.MenuUpdated, events.MenuUpdated, events.MenuUpdated}, rec.all())
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, models.ProductInput{Name: "Tea", Category: "Drinks", Price: 150})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, p.ID, models.ProductInput{Name: "Ginger Tea", Category: "Drinks", Price: 250})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)

	list, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ginger Tea", list[0].Name)
	assert.Equal(t, 250.0, list[0].Price)

	_, err = svc.UpdateProduct(ctx, 999, models.ProductInput{Name: "Ghost", Price: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), apperr.ErrNotFound)
	assert.Len(t, rec.all(), 3)
}

func TestProductValidation(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, models.ProductInput{Name: "  ", Price: 100})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.AddProduct(ctx, models.ProductInput{Name: "Cake", Price: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, rec.all())
}

func TestCategoriesConflicts(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	drinks, err := svc.AddCategory(ctx, "Drinks")
	require.NoError(t, err)
	_, err = svc.AddCategory(ctx, "Desserts")
	require.NoError(t, err)

	_, err = svc.AddCategory(ctx, "Drinks")
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Category already exists", apperr.Message(err))

	_, err = svc.UpdateCategory(ctx, drinks.ID, "Desserts")
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Name already taken", apperr.Message(err))

	_, err = svc.UpdateCategory(ctx, 999, "Snacks")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Desserts", list[0].Name)

	require.NoError(t, svc.DeleteCategory(ctx, drinks.ID))
	assert.Equal(t, []events.Topic{events.CategoriesUpdated, events.CategoriesUpdated, events.CategoriesUpdated}, rec.all())
}

func TestTables(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	t1, err := svc.AddTable(ctx, "T1")
	require.NoError(t, err)
	_, err = svc.AddTable(ctx, "T2")
	require.NoError(t, err)

	_, err = svc.AddTable(ctx, "T1")
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Table name already exists", apperr.Message(err))

	_, err = svc.UpdateTable(ctx, t1.ID, "T2")
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Name already taken", apperr.Message(err))

	renamed, err := svc.UpdateTable(ctx, t1.ID, "Garden")
	require.NoError(t, err)
	assert.Equal(t, "Garden", renamed.Name)

	require.NoError(t, svc.DeleteTable(ctx, t1.ID))
	assert.ErrorIs(t, svc.DeleteTable(ctx, t1.ID), apperr.ErrNotFound)

	list, err := svc.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "T2", list[0].Name)

	assert.Equal(t, []events.Topic{
		events.TablesAdded, events.TablesAdded,
		events.TablesUpdated, events.TablesUpdated,
	}, rec.all())
}
