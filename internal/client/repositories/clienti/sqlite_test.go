package clienti

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortofresco/gestionale/internal/client/models"
	"github.com/ortofresco/gestionale/internal/client/repositories/tombstones"
	"github.com/ortofresco/gestionale/internal/client/store"
	"github.com/ortofresco/gestionale/internal/dbx"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSave_AssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	first := &models.Cliente{RagioneSociale: "Ortofrutta Rossi"}
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(1), first.ID)
	assert.False(t, first.Synced)

	second := &models.Cliente{RagioneSociale: "Mercato Verde"}
	require.NoError(t, repo.Save(ctx, second))
	assert.Equal(t, int64(2), second.ID)
}

func TestSave_KeepsExplicitID(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	c := &models.Cliente{ID: 42, RagioneSociale: "Ortofrutta Rossi"}
	require.NoError(t, repo.Save(ctx, c))

	next := &models.Cliente{RagioneSociale: "Mercato Verde"}
	require.NoError(t, repo.Save(ctx, next))
	assert.Equal(t, int64(43), next.ID)
}

func TestGetAll_ExcludesTombstonedRows(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := NewSQLiteRepository(db)
	tomb := tombstones.NewSQLiteRepository(db, tombstones.TableClienti)

	a := &models.Cliente{RagioneSociale: "Ortofrutta Rossi"}
	b := &models.Cliente{RagioneSociale: "Mercato Verde"}
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	// tombstone a without removing its row: it must disappear from reads
	require.NoError(t, tomb.Add(ctx, a.ID))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)

	_, err = repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpsertFromServer_OverwritesAndMarksSynced(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	local := &models.Cliente{RagioneSociale: "Ortofrutta Rossi", Citta: "Bari"}
	require.NoError(t, repo.Save(ctx, local))

	remote := *local
	remote.Citta = "Foggia"
	require.NoError(t, repo.UpsertFromServer(ctx, remote))

	got, err := repo.GetByID(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, "Foggia", got.Citta)
	assert.True(t, got.Synced)

	unsynced, err := repo.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestDeleteByID_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	c := &models.Cliente{RagioneSociale: "Ortofrutta Rossi"}
	require.NoError(t, repo.Save(ctx, c))

	require.NoError(t, repo.DeleteByID(ctx, c.ID))
	require.NoError(t, repo.DeleteByID(ctx, c.ID))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMarkAsDeleted_TombstoneAndRowInOneTx(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := NewSQLiteRepository(db)
	tomb := tombstones.NewSQLiteRepository(db, tombstones.TableClienti)

	c := &models.Cliente{RagioneSociale: "Ortofrutta Rossi"}
	require.NoError(t, repo.Save(ctx, c))

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := tomb.WithTx(tx).Add(ctx, c.ID); err != nil {
			return err
		}
		return NewSQLiteRepository(tx).DeleteByID(ctx, c.ID)
	})
	require.NoError(t, err)

	ids, err := tomb.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID}, ids)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
