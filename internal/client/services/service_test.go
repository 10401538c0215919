package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortofresco/gestionale/internal/client/api"
	"github.com/ortofresco/gestionale/internal/client/connectivity"
	"github.com/ortofresco/gestionale/internal/client/models"
	"github.com/ortofresco/gestionale/internal/client/repositories/clienti"
	"github.com/ortofresco/gestionale/internal/client/repositories/tombstones"
	"github.com/ortofresco/gestionale/internal/client/store"
	"github.com/ortofresco/gestionale/internal/dbx"
	"github.com/ortofresco/gestionale/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeClientiRemote simulates the server side of /api/clienti.
type fakeClientiRemote struct {
	nextID  int64
	err     error
	deleted []int64
}

func (f *fakeClientiRemote) Create(ctx context.Context, d models.ClienteDTO) (*models.Cliente, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	return &models.Cliente{ID: f.nextID + 99, RagioneSociale: d.RagioneSociale, CreatedAt: d.CreatedAt}, nil
}

func (f *fakeClientiRemote) Update(ctx context.Context, id int64, d models.ClienteDTO) (*models.Cliente, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Cliente{ID: id, RagioneSociale: d.RagioneSociale, CreatedAt: d.CreatedAt}, nil
}

func (f *fakeClientiRemote) Delete(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type serviceFixture struct {
	db       *sql.DB
	remote   *fakeClientiRemote
	observer *connectivity.Observer
	tomb     *tombstones.SQLiteRepository
	svc      *Service[models.Cliente, models.ClienteDTO]
}

func setup(t *testing.T, online bool) *serviceFixture {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	remote := &fakeClientiRemote{}
	observer := connectivity.NewObserver(testLogger())
	observer.SetOnline(context.Background(), online)
	tomb := tombstones.NewSQLiteRepository(db, tombstones.TableClienti)

	svc := New(Config[models.Cliente, models.ClienteDTO]{
		Kind: "clienti",
		DB:   db,
		NewStore: func(d dbx.DBTX) Store[models.Cliente] {
			return clienti.NewSQLiteRepository(d)
		},
		Tombstones: tomb,
		Remote:     remote,
		Observer:   observer,
		Payload:    models.Cliente.DTO,
		ID:         func(c models.Cliente) int64 { return c.ID },
		Logger:     testLogger(),
	})
	return &serviceFixture{db: db, remote: remote, observer: observer, tomb: tomb, svc: svc}
}

func TestSave_OnlineGoesThroughServer(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)

	c := &models.Cliente{RagioneSociale: "Ortofrutta Rossi"}
	outcome, err := f.svc.Save(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, SavedOnline, outcome)
	assert.Equal(t, int64(100), c.ID) // server-assigned
	assert.True(t, c.Synced)          // caller's copy matches the mirror

	all, err := f.svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Synced)
}

func TestSave_OfflineStoresUnsynced(t *testing.T) {
	ctx := context.Background()
	f := setup(t, false)

	c := &models.Cliente{RagioneSociale: "Ortofrutta Rossi"}
	outcome, err := f.svc.Save(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, SavedOffline, outcome)
	assert.Equal(t, int64(1), c.ID)
	assert.False(t, c.Synced)
}

func TestSave_FallsBackOfflineWhenServerVanishes(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)
	f.remote.err = api.ErrUnavailable

	c := &models.Cliente{RagioneSociale: "Ortofrutta Rossi"}
	outcome, err := f.svc.Save(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, SavedOffline, outcome)
	assert.False(t, f.observer.Online())
}

func TestSave_RemoteRejectionIsAnError(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)
	f.remote.err = api.ErrRemote

	c := &models.Cliente{RagioneSociale: "Ortofrutta Rossi"}
	_, err := f.svc.Save(ctx, c)
	assert.ErrorIs(t, err, api.ErrRemote)

	// nothing was stored locally either
	all, listErr := f.svc.GetAll(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, all)
}

func TestDelete_OnlineHardDeletesWithoutTombstone(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)

	c := &models.Cliente{RagioneSociale: "Ortofrutta Rossi"}
	_, err := f.svc.Save(ctx, c)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, c.ID))
	assert.Equal(t, []int64{c.ID}, f.remote.deleted)

	ids, err := f.tomb.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDelete_OfflineTombstonesAndHidesRecord(t *testing.T) {
	ctx := context.Background()
	f := setup(t, false)

	c := &models.Cliente{RagioneSociale: "Ortofrutta Rossi"}
	_, err := f.svc.Save(ctx, c)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, c.ID))

	ids, err := f.tomb.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID}, ids)

	all, err := f.svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
