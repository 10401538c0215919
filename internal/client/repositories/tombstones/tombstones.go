// Package tombstones persists deletion markers: an id present in a kind's
// tombstone table must be deleted on the remote store and must be treated as
// already deleted locally, even if the main-table row still exists.
//
// One physical table per entity kind; the same implementation serves all of
// them, parameterized by table name.
package tombstones

import (
	"context"
	"fmt"

	"github.com/ortofresco/gestionale/internal/dbx"
)

// Tombstone table names, one per entity kind.
const (
	TableClienti    = "clienti_eliminati"
	TableProdotti   = "prodotti_eliminati"
	TableImballaggi = "imballaggi_eliminati"
	TableBolle      = "bolle_eliminate"
)

// Repository records and drains pending remote deletions for one entity kind.
type Repository interface {
	// Add inserts a deletion marker. Idempotent.
	Add(ctx context.Context, id int64) error

	// List enumerates ids awaiting remote deletion.
	List(ctx context.Context) ([]int64, error)

	// Remove drops a single marker, once its remote deletion is confirmed.
	Remove(ctx context.Context, id int64) error

	// Clear empties the table after a drain pass.
	Clear(ctx context.Context) error
}

// SQLiteRepository implements Repository over one tombstone table. The table
// name must be one of the Table* constants; it is interpolated into SQL and
// never comes from user input.
type SQLiteRepository struct {
	db    dbx.DBTX
	table string
}

func NewSQLiteRepository(db dbx.DBTX, table string) *SQLiteRepository {
	return &SQLiteRepository{db: db, table: table}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *SQLiteRepository) WithTx(tx dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: tx, table: r.table}
}

func (r *SQLiteRepository) Add(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`INSERT INTO %s (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, r.table)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to add tombstone %s[%d]: %w", r.table, id, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]int64, error) {
	query := fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tombstones %s: %w", r.table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to remove tombstone %s[%d]: %w", r.table, id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	query := fmt.Sprintf(`DELETE FROM %s`, r.table)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to clear tombstones %s: %w", r.table, err)
	}
	return nil
}
