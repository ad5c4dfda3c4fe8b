package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/settings"
	"storefront/pkg/database"
	"storefront/pkg/models"
)

func TestExportWritesStoredDocuments(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, catalog.NewRepo(db).ReplaceAll(ctx, []models.Product{
		{ID: "p1", Title: "Shirt", Price: 20},
	}))
	require.NoError(t, settings.NewRepo(db).Put(ctx, settings.DocDelivery, []byte(`{"inside":10}`)))

	dir := filepath.Join(t.TempDir(), "mirror")
	written, err := export(ctx, db, dir, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"products.json", "delivery.json"}, written)

	b, err := os.ReadFile(filepath.Join(dir, "products.json"))
	require.NoError(t, err)
	var products []models.Product
	require.NoError(t, json.Unmarshal(b, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Shirt", products[0].Title)

	b, err = os.ReadFile(filepath.Join(dir, "delivery.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"inside":10}`, string(b))

	_, err = os.Stat(filepath.Join(dir, "cart-rules.json"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
