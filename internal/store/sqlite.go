package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/myorg/lifesim/internal/timeline"
)

// SQLiteStore keeps runs in a local SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Init creates the result tables.
func (s *SQLiteStore) Init(ctx context.Context) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			stop_reason TEXT NOT NULL,
			scenario TEXT,
			locale TEXT,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			final_day INTEGER NOT NULL,
			final_hour REAL NOT NULL,
			hunger REAL NOT NULL,
			sleep REAL NOT NULL,
			happiness INTEGER NOT NULL,
			willpower INTEGER NOT NULL,
			money INTEGER NOT NULL,
			employment_chance REAL NOT NULL,
			game_over BOOLEAN NOT NULL DEFAULT 0,
			outcome_reason TEXT,
			steps_fired INTEGER NOT NULL DEFAULT 0,
			steps_failed INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS samples (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			recorded_at TEXT,
			day INTEGER NOT NULL,
			hour REAL NOT NULL,
			hunger REAL NOT NULL,
			sleep REAL NOT NULL,
			happiness INTEGER NOT NULL,
			willpower INTEGER NOT NULL,
			money INTEGER NOT NULL,
			employment_chance REAL NOT NULL,
			speed REAL NOT NULL,
			paused BOOLEAN NOT NULL DEFAULT 0,
			game_over BOOLEAN NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, seq),
			FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
	}

	for _, query := range schemas {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// SaveRun stores run and samples in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run, samples []timeline.TimelineEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, mode, stop_reason, scenario, locale, started_at, ended_at, frames,
			final_day, final_hour, hunger, sleep, happiness, willpower, money, employment_chance,
			game_over, outcome_reason, steps_fired, steps_failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Reason, run.Scenario, run.Locale,
		formatTime(run.StartedAt), formatTime(run.EndedAt), run.Frames,
		run.FinalDay, run.FinalHour,
		run.Stats.Hunger, run.Stats.Sleep, run.Stats.Happiness, run.Stats.Willpower,
		run.Stats.Money, run.Stats.EmploymentChance,
		run.GameOver, run.OutcomeReason, run.StepsFired, run.StepsFailed,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateRun, run.ID)
		}
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (run_id, seq, recorded_at, day, hour, hunger, sleep, happiness,
			willpower, money, employment_chance, speed, paused, game_over)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing sample insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range samples {
		_, err := stmt.ExecContext(ctx,
			run.ID, i, formatTime(e.Timestamp), e.Day, e.Hour,
			e.Hunger, e.Sleep, e.Happiness, e.Willpower, e.Money,
			e.EmploymentChance, e.Speed, e.Paused, e.GameOver,
		)
		if err != nil {
			return fmt.Errorf("inserting sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// ListRuns returns stored runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT r.run_id, r.mode, r.stop_reason, COALESCE(r.scenario, ''), COALESCE(r.locale, ''),
			r.started_at, r.ended_at, r.frames, r.final_day, r.final_hour,
			r.hunger, r.sleep, r.happiness, r.willpower, r.money, r.employment_chance,
			r.game_over, COALESCE(r.outcome_reason, ''), r.steps_fired, r.steps_failed,
			(SELECT COUNT(*) FROM samples s WHERE s.run_id = r.run_id)
		FROM runs r
		ORDER BY r.started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, ended string
		err := rows.Scan(
			&r.ID, &r.Mode, &r.Reason, &r.Scenario, &r.Locale,
			&started, &ended, &r.Frames, &r.FinalDay, &r.FinalHour,
			&r.Stats.Hunger, &r.Stats.Sleep, &r.Stats.Happiness, &r.Stats.Willpower,
			&r.Stats.Money, &r.Stats.EmploymentChance,
			&r.GameOver, &r.OutcomeReason, &r.StepsFired, &r.StepsFailed,
			&r.SampleCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", r.ID, err)
		}
		if r.EndedAt, err = parseTime(ended); err != nil {
			return nil, fmt.Errorf("run %s ended_at: %w", r.ID, err)
		}
		r.Stats.Exhausted = r.GameOver
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
