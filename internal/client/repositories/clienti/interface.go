package clienti

import (
	"context"

	"github.com/ortofresco/gestionale/internal/client/models"
)

// Repository describes local-mirror operations for Cliente records.
// Implementations are backed by the local sqlite database.
type Repository interface {
	// GetAll returns every readable record: rows whose id appears in the
	// clienti tombstone table are excluded even if still physically present.
	GetAll(ctx context.Context) ([]models.Cliente, error)

	// GetByID returns a single record by id (tombstone-filtered).
	GetByID(ctx context.Context, id int64) (*models.Cliente, error)

	// Save persists the record and marks it unsynced. A zero ID gets the
	// next local id assigned (max+1, starting at 1); a non-zero ID upserts
	// as-is. The record is updated in place with the final id.
	Save(ctx context.Context, c *models.Cliente) error

	// ListUnsynced returns records whose local content has not been
	// confirmed by the remote store.
	ListUnsynced(ctx context.Context) ([]models.Cliente, error)

	// UpsertFromServer overwrites the row wholesale with the server payload
	// and marks it synced.
	UpsertFromServer(ctx context.Context, c models.Cliente) error

	// DeleteByID removes the row unconditionally. Idempotent.
	DeleteByID(ctx context.Context, id int64) error

	// NextID computes the next local id: max(existing)+1, 1 when empty.
	NextID(ctx context.Context) (int64, error)
}
