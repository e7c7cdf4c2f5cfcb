// Package sqlite implements store.Driver on top of modernc.org/sqlite, a
// pure-Go, CGO-free SQLite driver. It is the only storage backend parley
// ships: a single-writer embedded relational store is sufficient for one
// process serving one conversation history, and rules out the operational
// overhead of a replicated, multi-writer backend.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/parleyai/parley/store"
)

//go:embed schema.sql
var schemaSQL string

// DB implements store.Driver.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies the schema idempotently.
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite database %q", path)
	}
	// A single physical connection keeps writes serialized in the driver
	// itself rather than relying on SQLite's own locking to arbitrate.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "enable WAL journal mode")
	}

	d := &DB{db: conn}
	if err := d.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) migrate(ctx context.Context) error {
	// schema.sql is entirely additive (IF NOT EXISTS) so it is simply
	// replayed on every open. The schema_migrations table it creates is not
	// consulted here: no version is recorded or checked.
	if _, err := d.db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

// Close implements store.Driver.
func (d *DB) Close() error {
	return d.db.Close()
}

var _ store.Driver = (*DB)(nil)
