package bolle

import (
	"context"

	"github.com/ortofresco/gestionale/internal/client/models"
)

// Repository describes local-mirror operations for delivery notes. Beyond the
// common mirror contract it exposes SaveWithID for offline-created documents
// (timestamp-scale provisional ids) and ListNumeri for document numbering.
type Repository interface {
	GetAll(ctx context.Context) ([]models.Bolla, error)
	GetByID(ctx context.Context, id int64) (*models.Bolla, error)

	// Save persists the document and marks it unsynced. A zero ID gets the
	// next sequential local id.
	Save(ctx context.Context, b *models.Bolla) error

	// SaveWithID persists the document under a caller-chosen provisional id
	// and marks it unsynced. Used for documents created explicitly offline,
	// where a timestamp-scale id avoids colliding with server-assigned ones.
	SaveWithID(ctx context.Context, b *models.Bolla, id int64) error

	ListUnsynced(ctx context.Context) ([]models.Bolla, error)
	UpsertFromServer(ctx context.Context, b models.Bolla) error
	DeleteByID(ctx context.Context, id int64) error
	NextID(ctx context.Context) (int64, error)

	// ListNumeri returns every document number on record, tombstone-filtered,
	// for computing the next free base number.
	ListNumeri(ctx context.Context) ([]string, error)
}
