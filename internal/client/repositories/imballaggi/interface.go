package imballaggi

import (
	"context"

	"github.com/ortofresco/gestionale/internal/client/models"
)

// Repository describes local-mirror operations for Imballaggio records.
type Repository interface {
	GetAll(ctx context.Context) ([]models.Imballaggio, error)
	GetByID(ctx context.Context, id int64) (*models.Imballaggio, error)
	Save(ctx context.Context, i *models.Imballaggio) error
	ListUnsynced(ctx context.Context) ([]models.Imballaggio, error)
	UpsertFromServer(ctx context.Context, i models.Imballaggio) error
	DeleteByID(ctx context.Context, id int64) error
	NextID(ctx context.Context) (int64, error)
}
