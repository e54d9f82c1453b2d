package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS counters (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL DEFAULT 0
);`

// SQLiteStore persists counters in a single SQLite table
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	logger logr.Logger
	closed bool
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path string, logger logr.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("stats: empty database path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.V(1).Info("stats store opened", "path", path)

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Add upserts each non-zero counter in one transaction
func (s *SQLiteStore) Add(ctx context.Context, delta Counters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for name, v := range fields(delta) {
		if v == 0 {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO counters (name, value) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET value = value + excluded.value`,
			name, v)
		if err != nil {
			return fmt.Errorf("update counter %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Counters{}, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM counters`)
	if err != nil {
		return Counters{}, fmt.Errorf("query counters: %w", err)
	}
	defer rows.Close()

	var c Counters
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return Counters{}, fmt.Errorf("scan counter: %w", err)
		}
		set(&c, name, value)
	}
	if err := rows.Err(); err != nil {
		return Counters{}, fmt.Errorf("read counters: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.V(1).Info("stats store closed")
	return s.db.Close()
}

func fields(c Counters) map[string]int64 {
	return map[string]int64{
		"analyses":   c.Analyses,
		"cache_hits": c.CacheHits,
		"warnings":   c.Warnings,
		"dangers":    c.Dangers,
		"faults":     c.Faults,
	}
}

// set ignores names it does not know
func set(c *Counters, name string, value int64) {
	switch name {
	case "analyses":
		c.Analyses = value
	case "cache_hits":
		c.CacheHits = value
	case "warnings":
		c.Warnings = value
	case "dangers":
		c.Dangers = value
	case "faults":
		c.Faults = value
	}
}
