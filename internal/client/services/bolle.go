package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ortofresco/gestionale/internal/client/api"
	"github.com/ortofresco/gestionale/internal/client/connectivity"
	"github.com/ortofresco/gestionale/internal/client/models"
	"github.com/ortofresco/gestionale/internal/client/numbering"
	"github.com/ortofresco/gestionale/internal/client/repositories/bolle"
	"github.com/ortofresco/gestionale/internal/client/repositories/tombstones"
	"github.com/ortofresco/gestionale/internal/dbx"
	"github.com/ortofresco/gestionale/internal/logging"
)

// EmailSender asks the server to mail a delivery note to its recipient.
type EmailSender interface {
	SendBollaEmail(ctx context.Context, id int64) error
}

// ErrOffline is returned by operations that only make sense against the
// server, like sending a document by email.
var ErrOffline = errors.New("operation requires connectivity")

// BolleConfig assembles a BolleService.
type BolleConfig struct {
	DB       *sql.DB
	NewRepo  func(dbx.DBTX) bolle.Repository
	Tomb     *tombstones.SQLiteRepository
	Remote   Remote[models.Bolla, models.BollaDTO]
	Sender   EmailSender
	Observer *connectivity.Observer
	Logger   logging.Logger

	// Now supplies timestamps for offline provisional ids; defaults to
	// time.Now.
	Now func() time.Time
}

// BolleService manages delivery notes: numbering, duplicates, generic
// documents, and the same online/offline save and delete paths as the
// anagrafica kinds.
type BolleService struct {
	db       *sql.DB
	newRepo  func(dbx.DBTX) bolle.Repository
	repo     bolle.Repository
	tomb     *tombstones.SQLiteRepository
	remote   Remote[models.Bolla, models.BollaDTO]
	sender   EmailSender
	observer *connectivity.Observer
	now      func() time.Time
	logger   logging.Logger
}

func NewBolle(cfg BolleConfig) *BolleService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &BolleService{
		db:       cfg.DB,
		newRepo:  cfg.NewRepo,
		repo:     cfg.NewRepo(cfg.DB),
		tomb:     cfg.Tomb,
		remote:   cfg.Remote,
		sender:   cfg.Sender,
		observer: cfg.Observer,
		now:      now,
		logger:   cfg.Logger.With("kind", "bolle"),
	}
}

func (s *BolleService) GetAll(ctx context.Context) ([]models.Bolla, error) {
	return s.repo.GetAll(ctx)
}

func (s *BolleService) GetByID(ctx context.Context, id int64) (*models.Bolla, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new delivery note. An empty Numero gets the next free base
// number assigned from the archive. Offline the record receives a
// timestamp-scale provisional id so it cannot collide with server ids.
func (s *BolleService) Create(ctx context.Context, b *models.Bolla) (SaveOutcome, error) {
	if b.Numero == "" {
		numero, err := s.nextNumero(ctx, numbering.VariantNone)
		if err != nil {
			return 0, err
		}
		b.Numero = numero
	}
	if b.Data.IsZero() {
		b.Data = s.now().UTC()
	}
	return s.save(ctx, b)
}

// Update stores changes to an existing delivery note. Offline edits of a
// previously synced document are flagged modified_offline.
func (s *BolleService) Update(ctx context.Context, b *models.Bolla) (SaveOutcome, error) {
	if b.ID == 0 {
		return 0, fmt.Errorf("update requires a stored document")
	}
	return s.save(ctx, b)
}

// Duplicate creates a new delivery note copying the origin's content under
// the origin's base number with the /bis suffix. Always a new record.
func (s *BolleService) Duplicate(ctx context.Context, id int64) (*models.Bolla, SaveOutcome, error) {
	origin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("loading origin document: %w", err)
	}
	n, err := numbering.Parse(origin.Numero)
	if err != nil {
		return nil, 0, err
	}

	dup := *origin
	dup.ID = 0
	dup.Synced = false
	dup.ModifiedOffline = false
	dup.Numero = n.Bis().String()
	dup.CreatedAt = time.Time{}

	outcome, err := s.save(ctx, &dup)
	if err != nil {
		return nil, 0, err
	}
	return &dup, outcome, nil
}

// NewGenerica creates a free-recipient document: no linked customer, next
// base number from the shared pool with the /generica suffix.
func (s *BolleService) NewGenerica(ctx context.Context, b *models.Bolla) (SaveOutcome, error) {
	b.ClienteID = nil
	numero, err := s.nextNumero(ctx, numbering.VariantGenerica)
	if err != nil {
		return 0, err
	}
	b.Numero = numero
	if b.Data.IsZero() {
		b.Data = s.now().UTC()
	}
	return s.save(ctx, b)
}

// Delete mirrors the anagrafica delete paths: hard delete when the server
// confirms, tombstoned soft delete otherwise.
func (s *BolleService) Delete(ctx context.Context, id int64) error {
	if s.observer.Online() {
		err := s.remote.Delete(ctx, id)
		switch {
		case err == nil, errors.Is(err, api.ErrNotFound):
			if err := s.repo.DeleteByID(ctx, id); err != nil {
				return fmt.Errorf("deleting bolla %d locally: %w", id, err)
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
		return s.newRepo(tx).DeleteByID(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("soft-deleting bolla %d: %w", id, err)
	}
	s.logger.Info(ctx, "deleted offline", "id", id)
	return nil
}

// SendEmail asks the server to mail the document to its recipient. Only
// synced documents have a server-side copy to send.
func (s *BolleService) SendEmail(ctx context.Context, id int64) error {
	if !s.observer.Online() {
		return ErrOffline
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading bolla %d: %w", id, err)
	}
	if !b.Synced {
		return fmt.Errorf("bolla %d has no server copy yet", id)
	}
	if err := s.sender.SendBollaEmail(ctx, id); err != nil {
		return fmt.Errorf("sending bolla %d: %w", id, err)
	}
	return nil
}

func (s *BolleService) save(ctx context.Context, b *models.Bolla) (SaveOutcome, error) {
	if s.observer.Online() {
		outcome, err := s.saveRemote(ctx, b)
		if err == nil || !errors.Is(err, api.ErrUnavailable) {
			return outcome, err
		}
		s.observer.SetOnline(ctx, false)
	}
	return s.saveOffline(ctx, b)
}

func (s *BolleService) saveRemote(ctx context.Context, b *models.Bolla) (SaveOutcome, error) {
	var confirmed *models.Bolla
	var err error
	if b.ID == 0 {
		confirmed, err = s.remote.Create(ctx, b.DTO())
	} else {
		confirmed, err = s.remote.Update(ctx, b.ID, b.DTO())
	}
	if err != nil {
		return 0, err
	}
	if err := s.repo.UpsertFromServer(ctx, *confirmed); err != nil {
		return 0, fmt.Errorf("mirroring saved bolla: %w", err)
	}
	*b = *confirmed
	b.Synced = true
	return SavedOnline, nil
}

func (s *BolleService) saveOffline(ctx context.Context, b *models.Bolla) (SaveOutcome, error) {
	if b.ID == 0 {
		// timestamp-scale provisional id, immune to the read-max race and
		// to collisions with server-assigned ids
		id := s.now().UnixMilli()
		if err := s.repo.SaveWithID(ctx, b, id); err != nil {
			return 0, fmt.Errorf("saving bolla offline: %w", err)
		}
	} else {
		b.ModifiedOffline = true
		if err := s.repo.Save(ctx, b); err != nil {
			return 0, fmt.Errorf("saving bolla offline: %w", err)
		}
	}
	s.logger.Info(ctx, "saved offline", "id", b.ID, "numero", b.Numero)
	return SavedOffline, nil
}

func (s *BolleService) nextNumero(ctx context.Context, variant numbering.Variant) (string, error) {
	numeri, err := s.repo.ListNumeri(ctx)
	if err != nil {
		return "", fmt.Errorf("listing document numbers: %w", err)
	}
	n := numbering.Number{Base: numbering.NextBase(numeri), Variant: variant}
	return n.String(), nil
}
