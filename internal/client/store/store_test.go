package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesAllTables(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tables := []string{
		"clienti", "prodotti", "imballaggi", "bolle",
		"clienti_eliminati", "prodotti_eliminati", "imballaggi_eliminati", "bolle_eliminate",
		"metadata",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestOpen_IsIdempotentAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mirror.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO clienti (id, ragione_sociale, created_at) VALUES (1, 'Ortofrutta Rossi', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// reopen: migrations must not touch existing rows
	db, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM clienti`).Scan(&n))
	require.Equal(t, 1, n)
}
