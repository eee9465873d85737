package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atelier-go/internal/atelier"
	"atelier-go/internal/database/migrations"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// SQLiteDatabase implements atelier.Database over a single SQLite file.
//
// Every mutating method runs in one transaction: constraint checks
// execute before any write (validate-then-commit) and cascades run
// inside the transaction that triggered them, so concurrent readers
// never observe a partial cascade. SQLite serializes writers; the busy
// timeout turns same-row contention into a retryable error instead of
// a deadlock.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens a SQLite database at path and applies
// pending migrations. path can be ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection. The caller is
// responsible for configuration and schema.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the store depends on. Exported for tools and tests that need
// a properly configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection sidesteps table-lock churn between the pool's
	// connections and keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	// Foreign keys are OFF by default in SQLite; the cascade semantics
	// of the schema depend on them.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	// Contention surfaces as a retryable "database is locked" failure
	// after 5s rather than an indefinite block.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return db, nil
}

// inTx runs fn inside a transaction, committing on nil and rolling back
// on error or context cancellation.
func (s *SQLiteDatabase) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness or
// primary-key constraint failure. Pre-checks catch these first in the
// common path; this is the backstop for the insert race two concurrent
// transactions can still lose.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// conflictOr maps uniqueness violations to atelier.ErrConflict and
// wraps anything else with msg.
func conflictOr(err error, msg string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", msg, atelier.ErrConflict)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is at the latest version.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.Check(s.db)
}

// SnapshotTo writes a complete, consistent copy of the database to
// destPath using VACUUM INTO.
func (s *SQLiteDatabase) SnapshotTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("snapshotting database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements atelier.Database.
var _ atelier.Database = (*SQLiteDatabase)(nil)
