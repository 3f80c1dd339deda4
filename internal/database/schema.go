package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Table names for exported runs.
const (
	RunsTable    = "lifesim_runs"
	SamplesTable = "lifesim_samples"
)

// SampleColumns is the column order used when copying samples.
var SampleColumns = []string{
	"run_id", "seq", "recorded_at", "day", "hour",
	"hunger", "sleep", "happiness", "willpower", "money",
	"employment_chance", "speed", "paused", "game_over",
}

// TableStats holds row counts for the result tables.
type TableStats struct {
	Runs    int64
	Samples int64
}

// CreateResultSchema creates the result tables if they do not exist.
func CreateResultSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS lifesim_runs (
			run_id UUID PRIMARY KEY,
			mode VARCHAR(16) NOT NULL,
			stop_reason VARCHAR(32) NOT NULL,
			scenario VARCHAR(200),
			locale VARCHAR(16),
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ NOT NULL,
			frames BIGINT NOT NULL DEFAULT 0,
			final_day INTEGER NOT NULL,
			final_hour DOUBLE PRECISION NOT NULL,
			hunger DOUBLE PRECISION NOT NULL,
			sleep DOUBLE PRECISION NOT NULL,
			happiness INTEGER NOT NULL,
			willpower INTEGER NOT NULL,
			money INTEGER NOT NULL,
			employment_chance DOUBLE PRECISION NOT NULL,
			game_over BOOLEAN NOT NULL DEFAULT false,
			outcome_reason TEXT,
			steps_fired INTEGER NOT NULL DEFAULT 0,
			steps_failed INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS lifesim_samples (
			run_id UUID NOT NULL REFERENCES lifesim_runs(run_id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			recorded_at TIMESTAMPTZ,
			day INTEGER NOT NULL,
			hour DOUBLE PRECISION NOT NULL,
			hunger DOUBLE PRECISION NOT NULL,
			sleep DOUBLE PRECISION NOT NULL,
			happiness INTEGER NOT NULL,
			willpower INTEGER NOT NULL,
			money INTEGER NOT NULL,
			employment_chance DOUBLE PRECISION NOT NULL,
			speed DOUBLE PRECISION NOT NULL,
			paused BOOLEAN NOT NULL DEFAULT false,
			game_over BOOLEAN NOT NULL DEFAULT false,
			PRIMARY KEY (run_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_lifesim_runs_started ON lifesim_runs(started_at);
		CREATE INDEX IF NOT EXISTS idx_lifesim_samples_day ON lifesim_samples(run_id, day);
	`

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating result schema: %w", err)
	}
	return nil
}

// DropResultSchema drops the result tables.
func DropResultSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := `
		DROP TABLE IF EXISTS lifesim_samples CASCADE;
		DROP TABLE IF EXISTS lifesim_runs CASCADE;
	`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("dropping result schema: %w", err)
	}
	return nil
}

// GetTableStats returns row counts for the result tables.
func GetTableStats(ctx context.Context, pool *pgxpool.Pool) (*TableStats, error) {
	stats := &TableStats{}

	queries := []struct {
		table string
		dest  *int64
	}{
		{RunsTable, &stats.Runs},
		{SamplesTable, &stats.Samples},
	}

	for _, q := range queries {
		err := pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", q.table)).Scan(q.dest)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.table, err)
		}
	}

	return stats, nil
}
