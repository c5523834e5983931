// sqlite_ops.go provides SQLite connection management and low-level helpers.
//
// Separated to isolate SQLite-specific concerns (pragmas, pool limits,
// driver registration) from entity operations. This is the only file that
// imports the SQLite driver.
//
// Design: WAL mode with a busy timeout balances concurrency and durability.
// WAL allows concurrent readers during writes, which matters when the
// context-assembly endpoint reads a subtree while editors patch documents.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	// Register sqlite driver
	_ "modernc.org/sqlite"
)

// Store provides persistence for projects, nodes, documents, and dictionary
// entries over a single pooled SQLite connection.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Options configures the connection pool.
type Options struct {
	PoolMin int // minimum idle connections kept open
	PoolMax int // maximum concurrent connections
	Logger  *zap.Logger
}

// Open opens the SQLite database file at path and returns a configured
// Store. The caller should call Close on the returned store.
func Open(path string, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// WAL mode: concurrent readers while writing. Trade-off: creates -wal
	// and -shm files alongside the database.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// How long to wait when another connection holds a lock. Most
	// operations complete in milliseconds; 5 seconds avoids "database is
	// locked" errors under concurrent moves and patches.
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// With WAL, NORMAL is safe against corruption; FULL would fsync every
	// commit at ~10x the cost.
	if _, err := db.Exec(`PRAGMA synchronous=NORMAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting synchronous mode: %w", err)
	}

	if opts.PoolMax > 0 {
		db.SetMaxOpenConns(opts.PoolMax)
	}
	if opts.PoolMin > 0 {
		db.SetMaxIdleConns(opts.PoolMin)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, log: logger}, nil
}

// Init creates tables, indexes, and seed rows if they don't exist. Safe to
// call multiple times.
func (s *Store) Init() error {
	return execSchema(s.db)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for callers that need custom tables
// (the audit log uses this).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping verifies database connectivity for health reporting.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// dbtx abstracts *sql.DB and *sql.Tx so entity helpers can run either
// standalone or inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner abstracts sql.Row and sql.Rows, enabling a single scan function
// to handle both single-row and multi-row queries.
type scanner interface {
	Scan(dest ...any) error
}

// Tx executes fn within a database transaction, handling
// Begin/Commit/Rollback automatically. If fn returns an error the
// transaction is rolled back; otherwise it is committed. Context
// cancellation aborts the transaction at the next database call, so a
// cancelled request never leaves partial state behind.
func (s *Store) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// newNodeID returns a fresh node identifier in canonical 36-character form.
func newNodeID() string {
	return uuid.NewString()
}
