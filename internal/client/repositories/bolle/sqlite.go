package bolle

import (
	"context"
	"database/sql"
	"encoding/json"
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

const selectColumns = `id, numero, data, cliente_id, destinatario, indirizzo, citta, cap,
	provincia, partita_iva, codice_fiscale, telefono, causale,
	righe, colli_da_trasportare, colli_da_rendere,
	created_at, synced, modified_offline`

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Bolla, error) {
	query := `SELECT ` + selectColumns + ` FROM bolle
		WHERE id NOT IN (SELECT id FROM ` + tombstones.TableBolle + `)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select bolle: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Bolla, error) {
	query := `SELECT ` + selectColumns + ` FROM bolle
		WHERE id = ? AND id NOT IN (SELECT id FROM ` + tombstones.TableBolle + `)`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select bolla %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	b, err := scanBolla(rows)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, b *models.Bolla) error {
	if b.ID == 0 {
		id, err := r.NextID(ctx)
		if err != nil {
			return err
		}
		b.ID = id
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	b.Synced = false
	return r.upsert(ctx, *b)
}

func (r *SQLiteRepository) SaveWithID(ctx context.Context, b *models.Bolla, id int64) error {
	b.ID = id
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	b.Synced = false
	return r.upsert(ctx, *b)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.Bolla, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM bolle WHERE synced = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select unsynced bolle: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *SQLiteRepository) UpsertFromServer(ctx context.Context, b models.Bolla) error {
	b.Synced = true
	b.ModifiedOffline = false
	return r.upsert(ctx, b)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bolle WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete bolla %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) NextID(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM bolle`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next bolla id: %w", err)
	}
	return next, nil
}

func (r *SQLiteRepository) ListNumeri(ctx context.Context) ([]string, error) {
	query := `SELECT numero FROM bolle
		WHERE id NOT IN (SELECT id FROM ` + tombstones.TableBolle + `)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select numeri: %w", err)
	}
	defer rows.Close()

	var numeri []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numeri = append(numeri, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return numeri, nil
}

func (r *SQLiteRepository) upsert(ctx context.Context, b models.Bolla) error {
	righe, err := json.Marshal(orEmptyRighe(b.Righe))
	if err != nil {
		return fmt.Errorf("failed to encode righe: %w", err)
	}
	daTrasportare, err := json.Marshal(orEmptyColli(b.ColliDaTrasportare))
	if err != nil {
		return fmt.Errorf("failed to encode colli da trasportare: %w", err)
	}
	daRendere, err := json.Marshal(orEmptyColli(b.ColliDaRendere))
	if err != nil {
		return fmt.Errorf("failed to encode colli da rendere: %w", err)
	}

	query := `INSERT INTO bolle (id, numero, data, cliente_id, destinatario, indirizzo,
			citta, cap, provincia, partita_iva, codice_fiscale, telefono, causale,
			righe, colli_da_trasportare, colli_da_rendere,
			created_at, synced, modified_offline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			numero = excluded.numero,
			data = excluded.data,
			cliente_id = excluded.cliente_id,
			destinatario = excluded.destinatario,
			indirizzo = excluded.indirizzo,
			citta = excluded.citta,
			cap = excluded.cap,
			provincia = excluded.provincia,
			partita_iva = excluded.partita_iva,
			codice_fiscale = excluded.codice_fiscale,
			telefono = excluded.telefono,
			causale = excluded.causale,
			righe = excluded.righe,
			colli_da_trasportare = excluded.colli_da_trasportare,
			colli_da_rendere = excluded.colli_da_rendere,
			created_at = excluded.created_at,
			synced = excluded.synced,
			modified_offline = excluded.modified_offline
	`
	_, err = r.db.ExecContext(ctx, query,
		b.ID, b.Numero, b.Data.UTC().Format(time.RFC3339Nano), b.ClienteID,
		b.Destinatario, b.Indirizzo, b.Citta, b.CAP, b.Provincia,
		b.PartitaIVA, b.CodiceFiscale, b.Telefono, b.Causale,
		string(righe), string(daTrasportare), string(daRendere),
		b.CreatedAt.UTC().Format(time.RFC3339Nano), b.Synced, b.ModifiedOffline)
	if err != nil {
		return fmt.Errorf("failed to upsert bolla: %w", err)
	}
	return nil
}

func collect(rows *sql.Rows) ([]models.Bolla, error) {
	var result []models.Bolla
	for rows.Next() {
		b, err := scanBolla(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanBolla(rows *sql.Rows) (models.Bolla, error) {
	var b models.Bolla
	var data, righe, daTrasportare, daRendere, createdAt string
	if err := rows.Scan(&b.ID, &b.Numero, &data, &b.ClienteID,
		&b.Destinatario, &b.Indirizzo, &b.Citta, &b.CAP, &b.Provincia,
		&b.PartitaIVA, &b.CodiceFiscale, &b.Telefono, &b.Causale,
		&righe, &daTrasportare, &daRendere,
		&createdAt, &b.Synced, &b.ModifiedOffline); err != nil {
		return models.Bolla{}, fmt.Errorf("failed to scan bolla: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, data)
	if err != nil {
		return models.Bolla{}, fmt.Errorf("failed to parse bolla data: %w", err)
	}
	b.Data = ts
	ts, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return models.Bolla{}, fmt.Errorf("failed to parse bolla created_at: %w", err)
	}
	b.CreatedAt = ts

	if err := json.Unmarshal([]byte(righe), &b.Righe); err != nil {
		return models.Bolla{}, fmt.Errorf("failed to decode righe: %w", err)
	}
	if err := json.Unmarshal([]byte(daTrasportare), &b.ColliDaTrasportare); err != nil {
		return models.Bolla{}, fmt.Errorf("failed to decode colli da trasportare: %w", err)
	}
	if err := json.Unmarshal([]byte(daRendere), &b.ColliDaRendere); err != nil {
		return models.Bolla{}, fmt.Errorf("failed to decode colli da rendere: %w", err)
	}
	return b, nil
}

// stored as '[]' rather than 'null' so decoding round-trips to empty slices
func orEmptyRighe(r []models.RigaBolla) []models.RigaBolla {
	if r == nil {
		return []models.RigaBolla{}
	}
	return r
}

func orEmptyColli(c []models.Collo) []models.Collo {
	if c == nil {
		return []models.Collo{}
	}
	return c
}
