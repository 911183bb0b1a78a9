package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ledgerFormat is stamped into PRAGMA user_version. A file carrying any
// other non-zero stamp was written by an incompatible idmgr.
const ledgerFormat = 1

// ErrLedgerFormat means the file is a ledger of another format.
var ErrLedgerFormat = errors.New("unsupported ledger format")

// Store is a SQLite ledger of frozen plan manifests.
type Store struct {
	db *sql.DB
}

// Open opens the ledger at path, creating and stamping it when new.
// path may be ":memory:" for a throwaway ledger.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// One connection: SQLite has a single writer, and a :memory:
	// database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initLedger(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the ledger. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

func initLedger(db *sql.DB) error {
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	var format int
	if err := db.QueryRow("PRAGMA user_version").Scan(&format); err != nil {
		return fmt.Errorf("read ledger format: %w", err)
	}
	if format != 0 && format != ledgerFormat {
		return fmt.Errorf("%w: %d (want %d)", ErrLedgerFormat, format, ledgerFormat)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if format == 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", ledgerFormat)); err != nil {
			return fmt.Errorf("stamp ledger format: %w", err)
		}
	}
	return nil
}
