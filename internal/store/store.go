// Package store provides the persistent docstore.Store backends: a SQL
// table of JSON documents (SQLite or Postgres) and a MongoDB collection.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/prelims/internal/docstore"

	// Postgres driver registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Driver names a SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

const documentsTable = "documents"

// SQL stores documents as JSON text in a single table keyed by
// (collection, id).
type SQL struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

var _ docstore.Store = (*SQL)(nil)

// Open connects to the database, applies pragmas for SQLite and creates
// the documents table if needed.
func Open(ctx context.Context, driver Driver, dsn string) (*SQL, error) {
	var (
		drvName string
		dia     string
		schema  string
	)
	switch driver {
	case DriverSQLite:
		drvName, dia, schema = "sqlite", dialect.SQLite, schemaSQLite
	case DriverPostgres:
		drvName, dia, schema = "pgx", dialect.Postgres, schemaPostgres
	default:
		return nil, fmt.Errorf("unsupported driver: %q", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		// One writer at a time; keeps transactions from tripping over
		// SQLITE_BUSY in shared-cache mode.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQL{db: db, dialect: dia, now: time.Now}, nil
}

// OpenSQLite opens the SQLite database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	return Open(ctx, DriverSQLite, path)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQL) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	row, err := s.load(ctx, s.db, collection, id)
	if err != nil {
		return docstore.Document{}, err
	}
	return row.document()
}

func (s *SQL) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	data, err := json.Marshal(nonNil(doc.Fields))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.load(ctx, tx, collection, id)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			query, args := entsql.Dialect(s.dialect).
				Insert(documentsTable).
				Columns("collection", "id", "data", "version", "updated_at").
				Values(collection, id, string(data), int64(1), s.now().UnixMilli()).
				Query()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert document: %w", err)
			}
			return nil
		case err != nil:
			return err
		}
		return s.write(ctx, tx, collection, id, data, cur.version)
	})
}

func (s *SQL) Update(ctx context.Context, collection, id string, upd docstore.Update) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.load(ctx, tx, collection, id)
		if err != nil {
			return err
		}
		if upd.IfVersion != 0 && upd.IfVersion != cur.version {
			return docstore.ErrConflict
		}
		doc, err := cur.document()
		if err != nil {
			return err
		}
		merged, err := docstore.Apply(doc.Fields, upd)
		if err != nil {
			return err
		}
		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		return s.write(ctx, tx, collection, id, data, cur.version)
	})
}

// write replaces the stored data if the row is still at version from.
func (s *SQL) write(ctx context.Context, tx *sql.Tx, collection, id string, data []byte, from int64) error {
	query, args := entsql.Dialect(s.dialect).
		Update(documentsTable).
		Set("data", string(data)).
		Set("version", from+1).
		Set("updated_at", s.now().UnixMilli()).
		Where(entsql.And(
			entsql.EQ("collection", collection),
			entsql.EQ("id", id),
			entsql.EQ("version", from),
		)).
		Query()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n == 0 {
		return docstore.ErrConflict
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type storedRow struct {
	data    string
	version int64
}

func (r storedRow) document() (docstore.Document, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(r.data), &fields); err != nil {
		return docstore.Document{}, fmt.Errorf("decode document: %w", err)
	}
	return docstore.Document{Fields: nonNil(fields), Version: r.version}, nil
}

func (s *SQL) load(ctx context.Context, q queryer, collection, id string) (storedRow, error) {
	b := entsql.Dialect(s.dialect)
	query, args := b.Select("data", "version").
		From(b.Table(documentsTable)).
		Where(entsql.And(
			entsql.EQ("collection", collection),
			entsql.EQ("id", id),
		)).
		Query()

	var row storedRow
	err := q.QueryRowContext(ctx, query, args...).Scan(&row.data, &row.version)
	if errors.Is(err, sql.ErrNoRows) {
		return storedRow{}, docstore.ErrNotFound
	}
	if err != nil {
		return storedRow{}, fmt.Errorf("query document: %w", err)
	}
	return row, nil
}

// withTx runs fn in a transaction, committing if fn returns nil.
func (s *SQL) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS documents (
  collection TEXT NOT NULL,
  id TEXT NOT NULL,
  data TEXT NOT NULL,
  version INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (collection, id)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS documents (
  collection TEXT NOT NULL,
  id TEXT NOT NULL,
  data TEXT NOT NULL,
  version BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (collection, id)
);
`

// DefaultDBPath resolves the database file path in priority order:
// 1. PRELIMS_DB environment variable
// 2. $XDG_DATA_HOME/prelims/prelims.db
// 3. ~/.local/share/prelims/prelims.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PRELIMS_DB"); p != "" {
		return p, EnsureDir(p)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "prelims.db")
	return p, EnsureDir(p)
}

// DataDir returns the application data directory
// ($XDG_DATA_HOME/prelims or ~/.local/share/prelims).
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "prelims"), nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
