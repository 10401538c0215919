package clienti

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ortofresco/gestionale/internal/client/models"
	"github.com/ortofresco/gestionale/internal/client/repositories/tombstones"
	"github.com/ortofresco/gestionale/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `id, ragione_sociale, indirizzo, citta, cap, provincia,
	partita_iva, codice_fiscale, telefono, email, created_at, synced`

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Cliente, error) {
	query := `SELECT ` + selectColumns + ` FROM clienti
		WHERE id NOT IN (SELECT id FROM ` + tombstones.TableClienti + `)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select clienti: %w", err)
	}
	defer rows.Close()

	var result []models.Cliente
	for rows.Next() {
		c, err := scanCliente(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Cliente, error) {
	query := `SELECT ` + selectColumns + ` FROM clienti
		WHERE id = ? AND id NOT IN (SELECT id FROM ` + tombstones.TableClienti + `)`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select cliente %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	c, err := scanCliente(rows)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, c *models.Cliente) error {
	if c.ID == 0 {
		id, err := r.NextID(ctx)
		if err != nil {
			return err
		}
		c.ID = id
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.Synced = false
	return r.upsert(ctx, *c)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.Cliente, error) {
	query := `SELECT ` + selectColumns + ` FROM clienti WHERE synced = 0 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select unsynced clienti: %w", err)
	}
	defer rows.Close()

	var result []models.Cliente
	for rows.Next() {
		c, err := scanCliente(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) UpsertFromServer(ctx context.Context, c models.Cliente) error {
	c.Synced = true
	return r.upsert(ctx, c)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM clienti WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cliente %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) NextID(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM clienti`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next cliente id: %w", err)
	}
	return next, nil
}

func (r *SQLiteRepository) upsert(ctx context.Context, c models.Cliente) error {
	query := `INSERT INTO clienti (id, ragione_sociale, indirizzo, citta, cap, provincia,
			partita_iva, codice_fiscale, telefono, email, created_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ragione_sociale = excluded.ragione_sociale,
			indirizzo = excluded.indirizzo,
			citta = excluded.citta,
			cap = excluded.cap,
			provincia = excluded.provincia,
			partita_iva = excluded.partita_iva,
			codice_fiscale = excluded.codice_fiscale,
			telefono = excluded.telefono,
			email = excluded.email,
			created_at = excluded.created_at,
			synced = excluded.synced
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.RagioneSociale, c.Indirizzo, c.Citta, c.CAP, c.Provincia,
		c.PartitaIVA, c.CodiceFiscale, c.Telefono, c.Email,
		c.CreatedAt.UTC().Format(time.RFC3339Nano), c.Synced)
	if err != nil {
		return fmt.Errorf("failed to upsert cliente: %w", err)
	}
	return nil
}

func scanCliente(rows *sql.Rows) (models.Cliente, error) {
	var c models.Cliente
	var createdAt string
	if err := rows.Scan(&c.ID, &c.RagioneSociale, &c.Indirizzo, &c.Citta, &c.CAP,
		&c.Provincia, &c.PartitaIVA, &c.CodiceFiscale, &c.Telefono, &c.Email,
		&createdAt, &c.Synced); err != nil {
		return models.Cliente{}, fmt.Errorf("failed to scan cliente: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return models.Cliente{}, fmt.Errorf("failed to parse cliente created_at: %w", err)
	}
	c.CreatedAt = ts
	return c, nil
}
