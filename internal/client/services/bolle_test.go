package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortofresco/gestionale/internal/client/connectivity"
	"github.com/ortofresco/gestionale/internal/client/models"
	"github.com/ortofresco/gestionale/internal/client/repositories/bolle"
	"github.com/ortofresco/gestionale/internal/client/repositories/tombstones"
	"github.com/ortofresco/gestionale/internal/client/store"
	"github.com/ortofresco/gestionale/internal/dbx"
)

type fakeBolleRemote struct {
	nextID  int64
	err     error
	deleted []int64
	emailed []int64
}

func (f *fakeBolleRemote) Create(ctx context.Context, d models.BollaDTO) (*models.Bolla, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	b := models.Bolla{ID: f.nextID + 99}
	b.Numero = d.Numero
	b.Data = d.Data
	b.ClienteID = d.ClienteID
	b.Destinatario = d.Destinatario
	b.Causale = d.Causale
	b.Righe = d.Righe
	b.CreatedAt = d.CreatedAt
	return &b, nil
}

func (f *fakeBolleRemote) Update(ctx context.Context, id int64, d models.BollaDTO) (*models.Bolla, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Bolla{ID: id, Numero: d.Numero, Data: d.Data, Causale: d.Causale}, nil
}

func (f *fakeBolleRemote) Delete(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBolleRemote) SendBollaEmail(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.emailed = append(f.emailed, id)
	return nil
}

type bolleFixture struct {
	db       *sql.DB
	remote   *fakeBolleRemote
	observer *connectivity.Observer
	tomb     *tombstones.SQLiteRepository
	svc      *BolleService
	now      time.Time
}

func setupBolle(t *testing.T, online bool) *bolleFixture {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	remote := &fakeBolleRemote{}
	observer := connectivity.NewObserver(testLogger())
	observer.SetOnline(context.Background(), online)
	tomb := tombstones.NewSQLiteRepository(db, tombstones.TableBolle)

	// deterministic clock advancing one second per call so consecutive
	// offline creates never collide on their timestamp ids
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	clock := now
	svc := NewBolle(BolleConfig{
		DB:       db,
		NewRepo:  func(d dbx.DBTX) bolle.Repository { return bolle.NewSQLiteRepository(d) },
		Tomb:     tomb,
		Remote:   remote,
		Sender:   remote,
		Observer: observer,
		Logger:   testLogger(),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	return &bolleFixture{db: db, remote: remote, observer: observer, tomb: tomb, svc: svc, now: now}
}

func TestCreate_AssignsFirstNumberAboveFloor(t *testing.T) {
	ctx := context.Background()
	f := setupBolle(t, false)

	b := &models.Bolla{Destinatario: "Ortofrutta Rossi"}
	outcome, err := f.svc.Create(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, SavedOffline, outcome)
	assert.Equal(t, "256", b.Numero)
	// timestamp-scale id, far above anything the server would assign
	assert.Greater(t, b.ID, f.now.UnixMilli())
}

func TestCreate_NumberingSkipsSuffixesAndJunk(t *testing.T) {
	ctx := context.Background()
	f := setupBolle(t, false)

	for _, numero := range []string{"255/bis", "300", "302/generica", "abc"} {
		b := &models.Bolla{Numero: numero}
		_, err := f.svc.Create(ctx, b)
		require.NoError(t, err)
	}

	b := &models.Bolla{}
	_, err := f.svc.Create(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "303", b.Numero)
}

func TestCreate_OnlineUsesServerID(t *testing.T) {
	ctx := context.Background()
	f := setupBolle(t, true)

	b := &models.Bolla{Destinatario: "Ortofrutta Rossi"}
	outcome, err := f.svc.Create(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, SavedOnline, outcome)
	assert.Equal(t, int64(100), b.ID)
	assert.True(t, b.Synced)
}

func TestDuplicate_ReusesBaseWithBisSuffix(t *testing.T) {
	ctx := context.Background()
	f := setupBolle(t, false)

	origin := &models.Bolla{Destinatario: "Ortofrutta Rossi", Causale: "vendita"}
	_, err := f.svc.Create(ctx, origin)
	require.NoError(t, err)
	require.Equal(t, "256", origin.Numero)

	dup, outcome, err := f.svc.Duplicate(ctx, origin.ID)
	require.NoError(t, err)
	assert.Equal(t, SavedOffline, outcome)
	assert.Equal(t, "256/bis", dup.Numero)
	assert.NotEqual(t, origin.ID, dup.ID)
	assert.Equal(t, "vendita", dup.Causale)

	// both records exist
	all, err := f.svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNewGenerica_SharesPoolAndDropsCustomer(t *testing.T) {
	ctx := context.Background()
	f := setupBolle(t, false)

	first := &models.Bolla{}
	_, err := f.svc.Create(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "256", first.Numero)

	clienteID := int64(7)
	g := &models.Bolla{ClienteID: &clienteID, Destinatario: "Mercato rionale"}
	outcome, err := f.svc.NewGenerica(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, SavedOffline, outcome)
	assert.Equal(t, "257/generica", g.Numero)
	assert.Nil(t, g.ClienteID)

	// the generica consumed a base: the next plain number moves past it
	next := &models.Bolla{}
	_, err = f.svc.Create(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "258", next.Numero)
}

func TestUpdate_OfflineEditOfSyncedDocIsFlagged(t *testing.T) {
	ctx := context.Background()
	f := setupBolle(t, true)

	b := &models.Bolla{Destinatario: "Ortofrutta Rossi"}
	_, err := f.svc.Create(ctx, b)
	require.NoError(t, err)
	require.True(t, b.Synced)

	f.observer.SetOnline(ctx, false)
	b.Causale = "reso"
	outcome, err := f.svc.Update(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, SavedOffline, outcome)

	got, err := f.svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.ModifiedOffline)
	assert.False(t, got.Synced)
}

func TestSendEmail_RequiresOnlineAndSynced(t *testing.T) {
	ctx := context.Background()
	f := setupBolle(t, false)

	b := &models.Bolla{Destinatario: "Ortofrutta Rossi"}
	_, err := f.svc.Create(ctx, b)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.SendEmail(ctx, b.ID), ErrOffline)

	f.observer.SetOnline(ctx, true)
	err = f.svc.SendEmail(ctx, b.ID)
	assert.Error(t, err) // unsynced, no server copy

	require.NoError(t, f.svc.repo.UpsertFromServer(ctx, *b))
	require.NoError(t, f.svc.SendEmail(ctx, b.ID))
	assert.Equal(t, []int64{b.ID}, f.remote.emailed)
}

func TestDelete_OfflineSoftDeletes(t *testing.T) {
	ctx := context.Background()
	f := setupBolle(t, false)

	b := &models.Bolla{Destinatario: "Ortofrutta Rossi"}
	_, err := f.svc.Create(ctx, b)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, b.ID))

	ids, err := f.tomb.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids)
}
