package tombstones

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortofresco/gestionale/internal/client/store"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAdd_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t), TableClienti)

	require.NoError(t, repo.Add(ctx, 5))
	require.NoError(t, repo.Add(ctx, 5))

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t), TableBolle)

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, repo.Add(ctx, id))
	}

	require.NoError(t, repo.Remove(ctx, 2))
	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	require.NoError(t, repo.Clear(ctx))
	ids, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTablesAreIndependent(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	clienti := NewSQLiteRepository(db, TableClienti)
	prodotti := NewSQLiteRepository(db, TableProdotti)

	require.NoError(t, clienti.Add(ctx, 1))

	ids, err := prodotti.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
