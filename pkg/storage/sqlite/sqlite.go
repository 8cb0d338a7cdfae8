// Package sqlite provides the SQLite-backed record store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/sassy/pkg/storage/sqldriver"
)

// Driver implements storage.Driver on SQLite.
type Driver struct {
	*sqldriver.SQLDriver
}

// NewDriver opens (or creates) the database at dbPath. ":memory:" gives a
// private in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// registered as "sqlite3" by github.com/mattn/go-sqlite3
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	drv, err := sqldriver.New(ctx, db, sqldriver.SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{SQLDriver: drv}, nil
}
