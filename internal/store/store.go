// Package store is the best-effort SQLite mirror of session activity.
// The in-memory registry remains the source of truth for live turns;
// this layer exists for offline analysis and survives restarts. Write
// failures are logged by callers and never fail a turn.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite connection used by the session mirror.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at dsn, applies the recommended
// pragmas, and creates the schema when absent.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Recorder returns the session mirror backed by this store.
func (s *Store) Recorder() *SQLRecorder {
	return &SQLRecorder{db: s.db}
}

// applyPragmas configures SQLite for a single-process server.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			session_id         TEXT NOT NULL,
			turn_index         INTEGER NOT NULL,
			intent             TEXT NOT NULL,
			strategy           TEXT NOT NULL,
			targeted           TEXT NOT NULL DEFAULT '',
			question           TEXT NOT NULL,
			fallback           INTEGER NOT NULL DEFAULT 0,
			learner_confidence REAL NOT NULL,
			tokens_in          INTEGER NOT NULL DEFAULT 0,
			tokens_out         INTEGER NOT NULL DEFAULT 0,
			created_at         TIMESTAMP NOT NULL,
			PRIMARY KEY (session_id, turn_index)
		)`,
		`CREATE TABLE IF NOT EXISTS session_metrics (
			session_id        TEXT PRIMARY KEY,
			turns             INTEGER NOT NULL,
			direct_answer_pct REAL NOT NULL,
			reasoning_pct     REAL NOT NULL,
			tokens_in         INTEGER NOT NULL,
			tokens_out        INTEGER NOT NULL,
			duration_secs     INTEGER NOT NULL,
			updated_at        TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS llm_requests (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL,
			purpose       TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			latency_ms    INTEGER NOT NULL,
			success       INTEGER NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. SOCRATIC_DB environment variable
// 2. $XDG_DATA_HOME/socratic/socratic.db
// 3. ~/.local/share/socratic/socratic.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("SOCRATIC_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "socratic", "socratic.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
