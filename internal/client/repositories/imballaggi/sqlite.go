package imballaggi

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ortofresco/gestionale/internal/client/models"
	"github.com/ortofresco/gestionale/internal/client/repositories/tombstones"
	"github.com/ortofresco/gestionale/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Imballaggio, error) {
	query := `SELECT id, nome, tara, created_at, synced FROM imballaggi
		WHERE id NOT IN (SELECT id FROM ` + tombstones.TableImballaggi + `)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select imballaggi: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Imballaggio, error) {
	query := `SELECT id, nome, tara, created_at, synced FROM imballaggi
		WHERE id = ? AND id NOT IN (SELECT id FROM ` + tombstones.TableImballaggi + `)`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select imballaggio %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	i, err := scanImballaggio(rows)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, i *models.Imballaggio) error {
	if i.ID == 0 {
		id, err := r.NextID(ctx)
		if err != nil {
			return err
		}
		i.ID = id
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	i.Synced = false
	return r.upsert(ctx, *i)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.Imballaggio, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, nome, tara, created_at, synced FROM imballaggi WHERE synced = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select unsynced imballaggi: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *SQLiteRepository) UpsertFromServer(ctx context.Context, i models.Imballaggio) error {
	i.Synced = true
	return r.upsert(ctx, i)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM imballaggi WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete imballaggio %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) NextID(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM imballaggi`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next imballaggio id: %w", err)
	}
	return next, nil
}

func (r *SQLiteRepository) upsert(ctx context.Context, i models.Imballaggio) error {
	query := `INSERT INTO imballaggi (id, nome, tara, created_at, synced)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nome = excluded.nome,
			tara = excluded.tara,
			created_at = excluded.created_at,
			synced = excluded.synced
	`
	_, err := r.db.ExecContext(ctx, query,
		i.ID, i.Nome, i.Tara.String(), i.CreatedAt.UTC().Format(time.RFC3339Nano), i.Synced)
	if err != nil {
		return fmt.Errorf("failed to upsert imballaggio: %w", err)
	}
	return nil
}

func collect(rows *sql.Rows) ([]models.Imballaggio, error) {
	var result []models.Imballaggio
	for rows.Next() {
		i, err := scanImballaggio(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanImballaggio(rows *sql.Rows) (models.Imballaggio, error) {
	var i models.Imballaggio
	var tara, createdAt string
	if err := rows.Scan(&i.ID, &i.Nome, &tara, &createdAt, &i.Synced); err != nil {
		return models.Imballaggio{}, fmt.Errorf("failed to scan imballaggio: %w", err)
	}
	d, err := decimal.NewFromString(tara)
	if err != nil {
		return models.Imballaggio{}, fmt.Errorf("failed to parse imballaggio tara: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return models.Imballaggio{}, fmt.Errorf("failed to parse imballaggio created_at: %w", err)
	}
	i.Tara = d
	i.CreatedAt = ts
	return i, nil
}
