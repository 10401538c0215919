// Package services implements the user-facing operations on top of the
// repositories, the REST client and the connectivity observer: save online
// with an offline fallback, delete online with a soft-delete fallback, and
// the delivery-note specifics (numbering, duplicates, generic documents).
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ortofresco/gestionale/internal/client/api"
	"github.com/ortofresco/gestionale/internal/client/connectivity"
	"github.com/ortofresco/gestionale/internal/client/repositories/tombstones"
	"github.com/ortofresco/gestionale/internal/dbx"
	"github.com/ortofresco/gestionale/internal/logging"
)

// SaveOutcome tells the caller where a save landed, so the UI can surface
// "saved" vs "saved locally, will sync".
type SaveOutcome int

const (
	// SavedOnline means the server confirmed the record.
	SavedOnline SaveOutcome = iota + 1
	// SavedOffline means the record was stored locally, unsynced, and will
	// be pushed on the next reconnect.
	SavedOffline
)

// Store is the mirror-side contract the generic service needs for one kind.
type Store[T any] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id int64) (*T, error)
	Save(ctx context.Context, record *T) error
	UpsertFromServer(ctx context.Context, record T) error
	DeleteByID(ctx context.Context, id int64) error
}

// Remote is the server-side contract; api.Resource satisfies it.
type Remote[T any, D any] interface {
	Create(ctx context.Context, payload D) (*T, error)
	Update(ctx context.Context, id int64, payload D) (*T, error)
	Delete(ctx context.Context, id int64) error
}

// Config assembles one Service.
type Config[T any, D any] struct {
	// Kind names the entity for logs, e.g. "clienti".
	Kind string

	DB *sql.DB
	// NewStore builds a store over a plain handle or a transaction.
	NewStore func(dbx.DBTX) Store[T]

	Tombstones *tombstones.SQLiteRepository
	Remote     Remote[T, D]
	Observer   *connectivity.Observer

	Payload func(T) D
	ID      func(T) int64

	Logger logging.Logger
}

// Service implements save/delete/read for one anagrafica kind (clienti,
// prodotti, imballaggi).
type Service[T any, D any] struct {
	kind     string
	db       *sql.DB
	newStore func(dbx.DBTX) Store[T]
	local    Store[T]
	tomb     *tombstones.SQLiteRepository
	remote   Remote[T, D]
	observer *connectivity.Observer
	payload  func(T) D
	id       func(T) int64
	logger   logging.Logger
}

func New[T any, D any](cfg Config[T, D]) *Service[T, D] {
	return &Service[T, D]{
		kind:     cfg.Kind,
		db:       cfg.DB,
		newStore: cfg.NewStore,
		local:    cfg.NewStore(cfg.DB),
		tomb:     cfg.Tombstones,
		remote:   cfg.Remote,
		observer: cfg.Observer,
		payload:  cfg.Payload,
		id:       cfg.ID,
		logger:   cfg.Logger.With("kind", cfg.Kind),
	}
}

// GetAll lists readable records from the mirror. Works offline.
func (s *Service[T, D]) GetAll(ctx context.Context) ([]T, error) {
	return s.local.GetAll(ctx)
}

// GetByID reads one record from the mirror. Works offline.
func (s *Service[T, D]) GetByID(ctx context.Context, id int64) (*T, error) {
	return s.local.GetByID(ctx, id)
}

// Save stores the record. Online it goes to the server first and the mirror
// keeps the confirmed copy; offline (or when the server cannot be reached)
// it lands in the mirror unsynced, to be pushed on reconnect.
func (s *Service[T, D]) Save(ctx context.Context, record *T) (SaveOutcome, error) {
	if s.observer.Online() {
		outcome, err := s.saveRemote(ctx, record)
		if err == nil || !errors.Is(err, api.ErrUnavailable) {
			return outcome, err
		}
		s.observer.SetOnline(ctx, false)
	}

	if err := s.local.Save(ctx, record); err != nil {
		return 0, fmt.Errorf("saving %s locally: %w", s.kind, err)
	}
	s.logger.Info(ctx, "saved offline", "id", s.id(*record))
	return SavedOffline, nil
}

func (s *Service[T, D]) saveRemote(ctx context.Context, record *T) (SaveOutcome, error) {
	var confirmed *T
	var err error
	if s.id(*record) == 0 {
		confirmed, err = s.remote.Create(ctx, s.payload(*record))
	} else {
		confirmed, err = s.remote.Update(ctx, s.id(*record), s.payload(*record))
	}
	if err != nil {
		return 0, err
	}
	if err := s.local.UpsertFromServer(ctx, *confirmed); err != nil {
		return 0, fmt.Errorf("mirroring saved %s: %w", s.kind, err)
	}

	// hand back the mirrored row rather than the wire payload, so the
	// caller's copy carries the synced flag the mirror just recorded
	stored, err := s.local.GetByID(ctx, s.id(*confirmed))
	if err != nil {
		return 0, fmt.Errorf("reloading saved %s: %w", s.kind, err)
	}
	*record = *stored
	return SavedOnline, nil
}

// Delete removes the record. Online it deletes on the server (404 counts as
// done) and then hard-deletes locally; otherwise it soft-deletes: tombstone
// plus local row removal in one transaction, drained on the next sync pass.
func (s *Service[T, D]) Delete(ctx context.Context, id int64) error {
	if s.observer.Online() {
		err := s.remote.Delete(ctx, id)
		switch {
		case err == nil, errors.Is(err, api.ErrNotFound):
			if err := s.local.DeleteByID(ctx, id); err != nil {
				return fmt.Errorf("deleting %s %d locally: %w", s.kind, id, err)
			}
			return nil
		case errors.Is(err, api.ErrUnavailable):
			s.observer.SetOnline(ctx, false)
		default:
			return err
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.tomb.WithTx(tx).Add(ctx, id); err != nil {
			return err
		}
		return s.newStore(tx).DeleteByID(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("soft-deleting %s %d: %w", s.kind, id, err)
	}
	s.logger.Info(ctx, "deleted offline", "id", id)
	return nil
}
