package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "catalog.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRepo_ReplaceAllKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(openTestDB(t))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	moved, err := Move(sample(), 2, 0)
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceAll(ctx, moved))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(moved, got); diff != "" {
		t.Fatalf("stored list mismatch (-want +got):\n%s", diff)
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	p, err := repo.GetByID(ctx, "product2")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Runner", p.Title)

	p, err = repo.GetByID(ctx, "product9")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, repo.ReplaceAll(ctx, moved[:1]))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
