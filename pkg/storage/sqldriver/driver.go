// Package sqldriver implements storage.Driver over database/sql. The sqlite
// and postgres packages open the connection and pick a Dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/sassy/pkg/storage"
)

const columns = `id, kind, content, context, created_at, relevance, categories, metadata`

// SQLDriver is the shared database/sql implementation of storage.Driver.
type SQLDriver struct {
	DB      *sql.DB
	Dialect Dialect

	now func() time.Time
}

// New runs the dialect schema against db and returns a driver.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLDriver, error) {
	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLDriver{DB: db, Dialect: dialect, now: time.Now}, nil
}

// Insert appends a record.
func (d *SQLDriver) Insert(ctx context.Context, rec storage.Record) (int64, error) {
	rec = storage.Normalize(rec, d.now())

	categories, err := json.Marshal(rec.Categories)
	if err != nil {
		return 0, fmt.Errorf("encoding categories: %w", err)
	}
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encoding metadata: %w", err)
	}

	query := d.Dialect.rebind(`INSERT INTO memories
		(kind, content, content_folded, context, created_at, relevance, categories, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err = d.DB.QueryRowContext(ctx, query,
		rec.Kind,
		rec.Content,
		storage.Fold(rec.Content),
		rec.Context,
		rec.CreatedAt.UnixNano(),
		rec.Relevance,
		string(categories),
		string(metadata),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting record: %w", err)
	}

	return id, nil
}

// Search matches the folded content with LIKE, escaping wildcards in the query.
func (d *SQLDriver) Search(ctx context.Context, params storage.SearchParams) ([]storage.Record, error) {
	var (
		where = []string{`content_folded LIKE ? ESCAPE '\'`}
		args  = []any{"%" + escapeLike(storage.Fold(params.Query)) + "%"}
	)
	if params.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, params.Kind)
	}
	args = append(args, storage.ClampLimit(params.Limit))

	query := `SELECT ` + columns + ` FROM memories WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY relevance DESC, created_at DESC, id DESC LIMIT ?`

	return d.query(ctx, query, args...)
}

// Recent returns the newest records first.
func (d *SQLDriver) Recent(ctx context.Context, limit int) ([]storage.Record, error) {
	query := `SELECT ` + columns + ` FROM memories ORDER BY created_at DESC, id DESC LIMIT ?`
	return d.query(ctx, query, storage.ClampLimit(limit))
}

// ByCategory returns records tagged with category.
func (d *SQLDriver) ByCategory(ctx context.Context, category string, limit int) ([]storage.Record, error) {
	query := `SELECT ` + columns + ` FROM memories WHERE ` + d.Dialect.CategoryMatch +
		` ORDER BY relevance DESC, created_at DESC, id DESC LIMIT ?`
	return d.query(ctx, query, category, storage.ClampLimit(limit))
}

// UpdateRelevance overwrites the relevance column.
func (d *SQLDriver) UpdateRelevance(ctx context.Context, id int64, relevance float64) error {
	res, err := d.DB.ExecContext(ctx, d.Dialect.rebind(`UPDATE memories SET relevance = ? WHERE id = ?`), relevance, id)
	if err != nil {
		return fmt.Errorf("updating relevance: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating relevance: %w", err)
	}
	if n == 0 {
		return storage.NotFoundError{ID: id}
	}

	return nil
}

// AppendCategory reads the category set and writes it back inside a
// transaction when category is new.
func (d *SQLDriver) AppendCategory(ctx context.Context, id int64, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return errors.New("empty category")
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx, d.Dialect.rebind(`SELECT categories FROM memories WHERE id = ?`), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.NotFoundError{ID: id}
	}
	if err != nil {
		return fmt.Errorf("reading categories: %w", err)
	}

	var categories []string
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return fmt.Errorf("decoding categories: %w", err)
	}

	rec := storage.Record{Categories: categories}
	if rec.HasCategory(category) {
		return nil
	}

	encoded, err := json.Marshal(append(categories, category))
	if err != nil {
		return fmt.Errorf("encoding categories: %w", err)
	}

	if _, err := tx.ExecContext(ctx, d.Dialect.rebind(`UPDATE memories SET categories = ? WHERE id = ?`), string(encoded), id); err != nil {
		return fmt.Errorf("updating categories: %w", err)
	}

	return tx.Commit()
}

// Count returns the number of records.
func (d *SQLDriver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Close closes the database handle.
func (d *SQLDriver) Close() error {
	return d.DB.Close()
}

func (d *SQLDriver) query(ctx context.Context, query string, args ...any) ([]storage.Record, error) {
	rows, err := d.DB.QueryContext(ctx, d.Dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		var (
			rec        storage.Record
			createdAt  int64
			categories string
			metadata   string
		)
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Content, &rec.Context, &createdAt, &rec.Relevance, &categories, &metadata); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		rec.CreatedAt = time.Unix(0, createdAt)
		if err := json.Unmarshal([]byte(categories), &rec.Categories); err != nil {
			return nil, fmt.Errorf("decoding categories for record %d: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata for record %d: %w", rec.ID, err)
		}
		if rec.Categories == nil {
			rec.Categories = []string{}
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
