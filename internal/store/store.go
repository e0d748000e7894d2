// Package store handles SQLite persistence of settings and results.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Setting keys.
const (
	KeyPolicy     = "calculation-policy"
	KeyDuration   = "duration"
	KeyDifficulty = "difficulty"
	KeyTextType   = "text-type"
)

// Store wraps SQLite access for settings and test results.
type Store struct {
	db *sql.DB
}

// ResultFilter narrows ListResults. Zero values match everything.
type ResultFilter struct {
	Limit      int
	Policy     model.CalculationPolicy
	Difficulty model.Difficulty
	Since      *time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			finished_at INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			net_wpm INTEGER NOT NULL,
			cpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			error_rate INTEGER NOT NULL,
			streak INTEGER NOT NULL,
			max_streak INTEGER NOT NULL,
			total_keystrokes INTEGER NOT NULL,
			correct_keystrokes INTEGER NOT NULL,
			duration_s REAL NOT NULL,
			difficulty TEXT NOT NULL,
			policy TEXT NOT NULL,
			text_length INTEGER NOT NULL,
			word_count INTEGER NOT NULL,
			correct_words INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_finished_at ON results(finished_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the stored value for key, or def when it is unset.
func (s *Store) Get(ctx context.Context, key, def string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertResultSQL = `INSERT OR IGNORE INTO results (id, finished_at, wpm, net_wpm, cpm, accuracy, errors, error_rate,
	streak, max_streak, total_keystrokes, correct_keystrokes, duration_s, difficulty, policy,
	text_length, word_count, correct_words)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertResult(ctx context.Context, ex execer, r model.TestResult) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	res, err := ex.ExecContext(ctx, insertResultSQL,
		r.ID, r.Date.UTC().UnixNano(), r.WPM, r.NetWPM, r.CPM, r.Accuracy, r.Errors, r.ErrorRate,
		r.Streak, r.MaxStreak, r.TotalKeystrokes, r.CorrectKeystrokes, r.Time,
		string(r.Difficulty), string(r.Policy), r.TextLength, r.WordCount, r.CorrectWords,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertResult stores a finished result. Results with a known ID are ignored.
func (s *Store) InsertResult(ctx context.Context, r model.TestResult) error {
	if _, err := insertResult(ctx, s.db, r); err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// ImportResults inserts results not already stored and returns how many were added.
func (s *Store) ImportResults(ctx context.Context, results []model.TestResult) (int, error) {
	added := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range results {
			ok, err := insertResult(ctx, tx, r)
			if err != nil {
				return err
			}
			if ok {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import results: %w", err)
	}
	return added, nil
}

// ReplaceResults atomically replaces every stored result with results (newest first).
func (s *Store) ReplaceResults(ctx context.Context, results []model.TestResult) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM results`); err != nil {
			return err
		}
		for i := len(results) - 1; i >= 0; i-- {
			if _, err := insertResult(ctx, tx, results[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace results: %w", err)
	}
	return nil
}

// ListResults returns results newest first.
func (s *Store) ListResults(ctx context.Context, filter ResultFilter) ([]model.TestResult, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Policy != "" {
		clauses = append(clauses, "policy = ?")
		args = append(args, string(filter.Policy))
	}
	if filter.Difficulty != "" {
		clauses = append(clauses, "difficulty = ?")
		args = append(args, string(filter.Difficulty))
	}
	if filter.Since != nil {
		clauses = append(clauses, "finished_at >= ?")
		args = append(args, filter.Since.UTC().UnixNano())
	}
	query := fmt.Sprintf(`SELECT id, finished_at, wpm, net_wpm, cpm, accuracy, errors, error_rate,
		streak, max_streak, total_keystrokes, correct_keystrokes, duration_s, difficulty, policy,
		text_length, word_count, correct_words
		FROM results
		WHERE %s
		ORDER BY finished_at DESC, rowid DESC`, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.TestResult
	for rows.Next() {
		var r model.TestResult
		var finishedAt int64
		var difficulty, policy string
		if err := rows.Scan(&r.ID, &finishedAt, &r.WPM, &r.NetWPM, &r.CPM, &r.Accuracy, &r.Errors, &r.ErrorRate,
			&r.Streak, &r.MaxStreak, &r.TotalKeystrokes, &r.CorrectKeystrokes, &r.Time, &difficulty, &policy,
			&r.TextLength, &r.WordCount, &r.CorrectWords); err != nil {
			return nil, err
		}
		r.Date = time.Unix(0, finishedAt).UTC()
		r.Difficulty = model.Difficulty(difficulty)
		r.Policy = model.CalculationPolicy(policy)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// PruneResults keeps only the newest keep results and returns how many were removed.
func (s *Store) PruneResults(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM results WHERE id NOT IN (
			SELECT id FROM results ORDER BY finished_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune results: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
