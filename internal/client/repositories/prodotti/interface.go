package prodotti

import (
	"context"

	"github.com/ortofresco/gestionale/internal/client/models"
)

// Repository describes local-mirror operations for Prodotto records.
type Repository interface {
	GetAll(ctx context.Context) ([]models.Prodotto, error)
	GetByID(ctx context.Context, id int64) (*models.Prodotto, error)
	Save(ctx context.Context, p *models.Prodotto) error
	ListUnsynced(ctx context.Context) ([]models.Prodotto, error)
	UpsertFromServer(ctx context.Context, p models.Prodotto) error
	DeleteByID(ctx context.Context, id int64) error
	NextID(ctx context.Context) (int64, error)
}
