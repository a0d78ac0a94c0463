package catalog_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"faultline/internal/catalog"
	"faultline/internal/faults"
)

func newTestRepo(t *testing.T) *catalog.SQLRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE items (
		id          TEXT PRIMARY KEY,
		sku         TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		price_cents INTEGER NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`)
	require.NoError(t, err)

	return catalog.NewSQLRepository(db, catalog.DialectSQLite)
}

func testItem(id, sku string, updated time.Time) catalog.Item {
	return catalog.Item{ID: id, SKU: sku, Name: "Widget", PriceCents: 100, UpdatedAt: updated}
}

func TestRepoCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Create(ctx, testItem("1", "SKU-1", now)))

	got, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", got.SKU)
	assert.Equal(t, int64(100), got.PriceCents)
}

func TestRepoGetMissingIsTypedNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrResourceNotFound)
}

func TestRepoCreateDuplicateSKU(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, testItem("1", "SKU-1", now)))

	err := repo.Create(ctx, testItem("2", "SKU-1", now))
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrDuplicateSKU)
}

func TestRepoDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testItem("1", "SKU-1", time.Now().UTC())))
	require.NoError(t, repo.Delete(ctx, "1"))

	err := repo.Delete(ctx, "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrResourceNotFound)
}

func TestRepoPruneOlderThan(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, testItem("old", "SKU-OLD", now.Add(-48*time.Hour))))
	require.NoError(t, repo.Create(ctx, testItem("new", "SKU-NEW", now)))

	removed, err := repo.PruneOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.Get(ctx, "old")
	assert.ErrorIs(t, err, faults.ErrResourceNotFound)

	_, err = repo.Get(ctx, "new")
	assert.NoError(t, err)
}
