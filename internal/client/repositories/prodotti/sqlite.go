package prodotti

import (
	"context"
	"database/sql"
	"fmt"
	"time"

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

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Prodotto, error) {
	query := `SELECT id, nome, created_at, synced FROM prodotti
		WHERE id NOT IN (SELECT id FROM ` + tombstones.TableProdotti + `)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select prodotti: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Prodotto, error) {
	query := `SELECT id, nome, created_at, synced FROM prodotti
		WHERE id = ? AND id NOT IN (SELECT id FROM ` + tombstones.TableProdotti + `)`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select prodotto %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	p, err := scanProdotto(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, p *models.Prodotto) error {
	if p.ID == 0 {
		id, err := r.NextID(ctx)
		if err != nil {
			return err
		}
		p.ID = id
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Synced = false
	return r.upsert(ctx, *p)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.Prodotto, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, nome, created_at, synced FROM prodotti WHERE synced = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select unsynced prodotti: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *SQLiteRepository) UpsertFromServer(ctx context.Context, p models.Prodotto) error {
	p.Synced = true
	return r.upsert(ctx, p)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM prodotti WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete prodotto %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) NextID(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM prodotti`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next prodotto id: %w", err)
	}
	return next, nil
}

func (r *SQLiteRepository) upsert(ctx context.Context, p models.Prodotto) error {
	query := `INSERT INTO prodotti (id, nome, created_at, synced)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nome = excluded.nome,
			created_at = excluded.created_at,
			synced = excluded.synced
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Nome, p.CreatedAt.UTC().Format(time.RFC3339Nano), p.Synced)
	if err != nil {
		return fmt.Errorf("failed to upsert prodotto: %w", err)
	}
	return nil
}

func collect(rows *sql.Rows) ([]models.Prodotto, error) {
	var result []models.Prodotto
	for rows.Next() {
		p, err := scanProdotto(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanProdotto(rows *sql.Rows) (models.Prodotto, error) {
	var p models.Prodotto
	var createdAt string
	if err := rows.Scan(&p.ID, &p.Nome, &createdAt, &p.Synced); err != nil {
		return models.Prodotto{}, fmt.Errorf("failed to scan prodotto: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return models.Prodotto{}, fmt.Errorf("failed to parse prodotto created_at: %w", err)
	}
	p.CreatedAt = ts
	return p, nil
}
