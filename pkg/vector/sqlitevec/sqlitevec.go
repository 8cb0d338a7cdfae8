// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
// Unlike the flat driver it persists each Add incrementally.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/sassy/pkg/vector"
)

// Driver implements vector.Driver on sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the sqlite-vec driver.
type Config struct {
	// DBPath is the database file, or ":memory:".
	DBPath string

	// Dimensions fixes the vec0 column width. Required.
	Dimensions uint
}

// NewDriver opens the database and creates the tables. A database file that
// cannot be opened as SQLite is removed and recreated empty.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	d, err := open(c, logger)
	if err == nil || c.DBPath == ":memory:" {
		return d, err
	}

	logger.Warn("semantic index database unusable, recreating",
		"path", c.DBPath,
		"reason", err,
	)
	if rmErr := os.Remove(c.DBPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return nil, fmt.Errorf("removing corrupt database: %w", rmErr)
	}
	return open(c, logger)
}

func open(c Config, logger *slog.Logger) (*Driver, error) {
	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 tables key on integer rowids, so document metadata lives in a
	// side table sharing the rowid.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT '',
			context TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Driver{db: db, dimensions: c.Dimensions, logger: logger}, nil
}

// serializeFloat32 encodes v in the little-endian BLOB layout sqlite-vec reads.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Add inserts documents in one transaction. Documents whose id already
// exists are skipped.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		if uint(len(doc.Embedding)) != d.dimensions {
			return fmt.Errorf("document %s has %d dimensions, index has %d: %w",
				doc.ID, len(doc.Embedding), d.dimensions, vector.ErrDimensions)
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, doc := range docs {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO vec_documents(doc_id, content, kind, context, created_at)
			 VALUES (?, ?, ?, ?, ?) ON CONFLICT(doc_id) DO NOTHING`,
			doc.ID, doc.Content, doc.Kind, doc.Context, doc.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}

		if n, _ := result.RowsAffected(); n == 0 {
			continue
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, serializeFloat32(doc.Embedding),
		); err != nil {
			return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to sqlite-vec", "count", len(docs))
	return nil
}

// Query runs a vec0 KNN match and joins the metadata back.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}
	if uint(len(embedding)) != d.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w", len(embedding), d.dimensions, vector.ErrDimensions)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT d.doc_id, d.content, d.kind, d.context, d.created_at, ve.distance
		FROM vec_embeddings ve
		INNER JOIN vec_documents d ON d.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance, d.created_at DESC
	`, serializeFloat32(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := []vector.QueryResult{}
	for rows.Next() {
		var (
			doc       vector.Document
			createdAt int64
			distance  float64
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &doc.Kind, &doc.Context, &createdAt, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		doc.CreatedAt = time.Unix(0, createdAt)

		results = append(results, vector.QueryResult{
			Document: doc,
			Distance: float32(distance),
			Score:    vector.Similarity(float32(distance)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec", "results", len(results))
	return results, nil
}

func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

func (d *Driver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*Driver)(nil)
