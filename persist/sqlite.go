package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/npillmayer/pagedoc/tree"
	_ "modernc.org/sqlite" // registers driver "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	forest      TEXT NOT NULL,
	css         TEXT NOT NULL DEFAULT '',
	class_map   TEXT NOT NULL DEFAULT '{}',
	modified_at TEXT NOT NULL
)`

type sqliteConfig struct {
	busyTimeout int
	synchronous string
	mkdirAll    bool
}

// SQLiteOption configures OpenSQLite.
type SQLiteOption func(*sqliteConfig)

// BusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func BusyTimeout(ms int) SQLiteOption { return func(c *sqliteConfig) { c.busyTimeout = ms } }

// Synchronous sets PRAGMA synchronous. Default: "NORMAL".
func Synchronous(mode string) SQLiteOption { return func(c *sqliteConfig) { c.synchronous = mode } }

// MkdirAll creates parent directories of the database file before opening.
func MkdirAll() SQLiteOption { return func(c *sqliteConfig) { c.mkdirAll = true } }

// SQLite is a Persister storing documents in an SQLite database, one row
// per document. Forest and class map are stored as JSON.
type SQLite struct {
	db *sql.DB
}

var _ Persister = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path, applies the
// pragmas and creates the schema. Path ":memory:" opens a private
// in-memory database.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLite, error) {
	cfg := sqliteConfig{busyTimeout: 10_000, synchronous: "NORMAL"}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("persist: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("persist: open: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; also keeps ":memory:" on one connection
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.synchronous),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("persist: %s: %w", p, err)
		}
	}
	s, err := NewSQLite(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	tracer().Infof("sqlite: opened %s", path)
	return s, nil
}

// NewSQLite wraps an open database, creating the schema if necessary.
// The caller keeps ownership of db.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("persist: exec schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the document stored under id.
func (s *SQLite) Save(ctx context.Context, id string, rec Record) error {
	if id == "" {
		return ErrNoID
	}
	forest := rec.Forest
	if forest == nil {
		forest = tree.Forest{}
	}
	f, err := json.Marshal(forest)
	if err != nil {
		return fmt.Errorf("persist: encode forest of %s: %w", id, err)
	}
	classMap := rec.ClassMap
	if classMap == nil {
		classMap = map[string]string{}
	}
	cm, err := json.Marshal(classMap)
	if err != nil {
		return fmt.Errorf("persist: encode class map of %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, forest, css, class_map, modified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			forest = excluded.forest,
			css = excluded.css,
			class_map = excluded.class_map,
			modified_at = excluded.modified_at`,
		id, string(f), rec.CSS, string(cm), rec.ModifiedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("persist: save %s: %w", id, err)
	}
	tracer().Debugf("sqlite: saved document %s", id)
	return nil
}

// Load reads the document stored under id.
func (s *SQLite) Load(ctx context.Context, id string) (Record, error) {
	var f, cm, modified string
	rec := Record{DocumentID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT forest, css, class_map, modified_at FROM documents WHERE id = ?`, id,
	).Scan(&f, &rec.CSS, &cm, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	} else if err != nil {
		return Record{}, fmt.Errorf("persist: load %s: %w", id, err)
	}
	if err = json.Unmarshal([]byte(f), &rec.Forest); err != nil {
		return Record{}, fmt.Errorf("persist: decode forest of %s: %w", id, err)
	}
	if err = json.Unmarshal([]byte(cm), &rec.ClassMap); err != nil {
		return Record{}, fmt.Errorf("persist: decode class map of %s: %w", id, err)
	}
	if rec.ModifiedAt, err = time.Parse(time.RFC3339Nano, modified); err != nil {
		return Record{}, fmt.Errorf("persist: decode timestamp of %s: %w", id, err)
	}
	return rec, nil
}

// Delete removes the document stored under id.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("persist: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the ids of all stored documents, sorted.
func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("persist: list: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("persist: list: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
