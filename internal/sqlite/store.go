package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/meridian-health/thorax/pkg/types"
)

// Store is the single shared handle to the live registry database. It is
// constructed once at startup and passed explicitly to every component that
// needs it. Writes are serialized by an in-process mutex; worker goroutines
// that only read (export, health scans) open their own read-only connection
// instead of sharing this one.
type Store struct {
	mu   sync.RWMutex
	path string
	db   *sql.DB
}

// Open opens (or creates) the registry database at cfg.DBPath, enables
// foreign-key enforcement, applies the schema, and runs the additive
// migration pass so older files gain any missing columns.
func Open(cfg types.Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Pragmas go in the DSN so every pooled connection gets them, not just
	// the one a PRAGMA statement happens to run on.
	dsn := cfg.DBPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	// Migration runs before index creation: the unique event-code index
	// cannot be built while older files still lack the event_code column.
	if _, err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating indexes: %w", err)
		}
	}

	return &Store{path: cfg.DBPath, db: db}, nil
}

// OpenReadOnly opens an existing database file for reading only. Schema
// creation and migration are skipped; the connection is independent of any
// Store already open on the same file, which lets worker goroutines read
// concurrently without sharing a connection handle.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database read-only: %w", err)
	}
	return &Store{path: path, db: db}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database connection. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// checkOpen returns ErrStoreClosed when Close has already run. Callers must
// hold s.mu (read or write).
func (s *Store) checkOpen() error {
	if s.db == nil {
		return types.ErrStoreClosed
	}
	return nil
}

// Tables reports the user tables present in the database file.
func (s *Store) Tables() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Null-mapping helpers. Empty strings and nil pointers are stored as NULL so
// that absent form fields stay distinguishable from deliberate zero values.

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
