package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildcafe-pos/internal/catalog"
	"wildcafe-pos/internal/database/dbtest"
	"wildcafe-pos/internal/logger"
)

func TestSeedDemoIsIdempotent(t *testing.T) {
	svc := catalog.NewService(dbtest.New(t), nil, logger.New(nil))
	ctx := context.Background()

	require.NoError(t, seedDemo(ctx, svc))
	require.NoError(t, seedDemo(ctx, svc))

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(demoProducts))

	tables, err := svc.ListTables(ctx)
	require.NoError(t, err)
	assert.Len(t, tables, len(demoTables))

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(demoCategories))
}
