package imballaggi

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortofresco/gestionale/internal/client/models"
	"github.com/ortofresco/gestionale/internal/client/store"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSave_TaraRoundTripsExactly(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	i := &models.Imballaggio{Nome: "Cassa 30x40", Tara: decimal.RequireFromString("0.75")}
	require.NoError(t, repo.Save(ctx, i))

	got, err := repo.GetByID(ctx, i.ID)
	require.NoError(t, err)
	assert.True(t, got.Tara.Equal(decimal.RequireFromString("0.75")))
	assert.False(t, got.Synced)
}

func TestUpsertFromServer_MarksSynced(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	require.NoError(t, repo.UpsertFromServer(ctx, models.Imballaggio{ID: 3, Nome: "Pedana"}))

	unsynced, err := repo.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Synced)
}
