// Package store opens and migrates the local mirror database: the per-profile
// sqlite file holding the last-known state of every entity kind, surviving
// restarts and offline periods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/ortofresco/gestionale/internal/client/store/migrations"
)

// ErrLocalStorage marks faults of the local persistence layer (file
// unavailable, disk full, corruption). They are fatal to the attempted
// operation and never retried automatically; match with errors.Is.
var ErrLocalStorage = errors.New("local storage failure")

// Open opens (creating if needed) the mirror database at path and applies
// any pending migrations. The caller owns the returned handle.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrLocalStorage, path, err)
	}

	// sqlite allows a single writer; serialize access through one connection
	// to avoid SQLITE_BUSY under concurrent sync passes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling WAL: %v", ErrLocalStorage, err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys=ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling foreign keys: %v", ErrLocalStorage, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// RunMigrations applies the embedded goose migrations. Safe to call on every
// startup; already-applied versions are skipped.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%w: applying migrations: %v", ErrLocalStorage, err)
	}
	return nil
}
