package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/draftmark/draftmark/internal/draftstore"
)

// migrations run in order; schema_migrations records the last applied
// version.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS drafts (
		id         TEXT PRIMARY KEY,
		nodes      BLOB NOT NULL,
		revision   INTEGER NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Store is the SQLite persistence behind the dev server.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens or creates the draft database at path, creating
// parent directories as needed.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// WAL keeps reads open during writes.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns a draft's node array and current revision.
func (s *Store) Get(ctx context.Context, id string) ([]byte, int64, error) {
	var nodes []byte
	var rev int64
	err := s.db.QueryRowContext(ctx,
		`SELECT nodes, revision FROM drafts WHERE id = ?`, id).Scan(&nodes, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("draft %s: %w", id, draftstore.ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get draft %s: %w", id, err)
	}
	return nodes, rev, nil
}

// Put writes a draft. A non-zero expectRev makes the write conditional
// on the stored revision; zero writes unconditionally. It returns the
// new revision and whether the draft was created.
func (s *Store) Put(ctx context.Context, id string, nodes []byte, expectRev int64) (int64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin put: %w", err)
	}
	defer tx.Rollback()

	var cur int64
	err = tx.QueryRowContext(ctx,
		`SELECT revision FROM drafts WHERE id = ?`, id).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if expectRev != 0 {
			return 0, false, fmt.Errorf("draft %s: %w", id, draftstore.ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO drafts (id, nodes, revision) VALUES (?, ?, 1)`, id, nodes); err != nil {
			return 0, false, fmt.Errorf("insert draft %s: %w", id, err)
		}
		if err := tx.Commit(); err != nil {
			return 0, false, fmt.Errorf("commit put: %w", err)
		}
		return 1, true, nil
	case err != nil:
		return 0, false, fmt.Errorf("read revision for %s: %w", id, err)
	}

	if expectRev != 0 && expectRev != cur {
		return 0, false, fmt.Errorf("draft %s at revision %d, expected %d: %w",
			id, cur, expectRev, draftstore.ErrConflict)
	}
	next := cur + 1
	if _, err := tx.ExecContext(ctx,
		`UPDATE drafts SET nodes = ?, revision = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nodes, next, id); err != nil {
		return 0, false, fmt.Errorf("update draft %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit put: %w", err)
	}
	return next, false, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow(
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("applying migration %d: %w", i+1, err)
		}
		if _, err := s.db.Exec(
			`INSERT INTO schema_migrations (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}
	return nil
}
