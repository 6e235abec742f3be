// internal/history/store.go
//
// Durable history for solve runs, backed by SQLite.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying migrations from a sql/ directory (idempotent, recorded in _migrations).
//   - Run rows: insert, per-user listing, anonymous-run claiming, leaderboard.
//
// Note: This package assumes SQLite but can be adapted for other backends.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

/**
 * Open opens (and creates if missing) a SQLite database file.
 *
 * - Ensures parent directory exists for relative DSNs (e.g. ./data/app.db).
 * - Configures busy timeout and WAL journaling mode.
 * - Enforces foreign keys.
 *
 * @param dsn Database path or DSN string.
 * @returns *sql.DB ready for queries/migrations.
 */
func Open(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

/**
 * Migrate applies SQL migrations from the given directory.
 *
 * - Uses a _migrations table to track applied files.
 * - Executes each *.sql file in lexical order, inside a transaction.
 * - Skips files that have already been applied.
 */
func Migrate(db *sql.DB, root string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	var files []string
	if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk sql dir: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		name := filepath.Base(f)

		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, name).Scan(&done)
		if err == nil {
			log.Info().Str("migration", name).Msg("already applied")
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", name).Msg("applied")
	}
	return nil
}

/* ----------------------------- run rows --------------------------------- */

/**
 * Run represents a single recorded solve: who ran it (user or anonymous),
 * the puzzle dimensions, and how it went.
 */
type Run struct {
	ID          string
	UserID      string // empty for anonymous runs
	AnonymousID string // empty for user runs
	Digits      int
	Length      int
	Threads     int
	Secret      string // display form of the solved code
	Guesses     int
	ElapsedMs   int
	CreatedAt   time.Time
}

/** Row type returned for leaderboard queries. */
type LBRow struct {
	RunID     string
	UserID    string
	Secret    string
	Guesses   int
	ElapsedMs int
}

// Store wraps run-history queries over an open database.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// InsertRun records a finished solve. Exactly one of UserID/AnonymousID
// should be set.
func (s *Store) InsertRun(ctx context.Context, r Run) error {
	var userID, anonID any
	if r.UserID != "" {
		userID = r.UserID
	}
	if r.AnonymousID != "" {
		anonID = r.AnonymousID
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO solve_runs
            (id, user_id, anonymous_id, digits, length, threads, secret, guesses, elapsed_ms, created_at)
        VALUES (?,?,?,?,?,?,?,?,?,?)`,
		r.ID, userID, anonID, r.Digits, r.Length, r.Threads, r.Secret,
		r.Guesses, r.ElapsedMs, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// RunsForUser lists a user's most recent runs, newest first.
func (s *Store) RunsForUser(ctx context.Context, userID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, digits, length, threads, secret, guesses, elapsed_ms, created_at
        FROM solve_runs
        WHERE user_id=?
        ORDER BY created_at DESC
        LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Run, 0, limit)
	for rows.Next() {
		r := Run{UserID: userID}
		var created string
		if err := rows.Scan(&r.ID, &r.Digits, &r.Length, &r.Threads, &r.Secret, &r.Guesses, &r.ElapsedMs, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

/**
 * Leaderboard fetches the best runs for one puzzle shape (digits, length).
 *
 * - Ordered by guesses ASC, then elapsed time ASC, then created_at ASC.
 * - Default limit is 20 if not specified.
 */
func (s *Store) Leaderboard(ctx context.Context, digits, length, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, COALESCE(user_id, ''), secret, guesses, elapsed_ms
        FROM solve_runs
        WHERE digits=? AND length=?
        ORDER BY guesses ASC, elapsed_ms ASC, created_at ASC
        LIMIT ?`, digits, length, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.RunID, &r.UserID, &r.Secret, &r.Guesses, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnonRuns transfers anonymous runs to a user account after auth.
func (s *Store) ClaimAnonRuns(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE solve_runs SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`,
		userID, anonID)
	return err
}
