package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/myorg/lifesim/internal/database"
	"github.com/myorg/lifesim/internal/timeline"
)

// uniqueViolation is the PostgreSQL SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// PostgresStore exports runs to PostgreSQL. Samples are bulk loaded with COPY.
type PostgresStore struct {
	pool *database.Pool
}

// NewPostgresStore wraps an open pool. Close closes the pool.
func NewPostgresStore(pool *database.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Init creates the result tables.
func (s *PostgresStore) Init(ctx context.Context) error {
	return database.CreateResultSchema(ctx, s.pool.Pool())
}

// SaveRun inserts the run row and copies its samples in one transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, run Run, samples []timeline.TimelineEntry) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return fmt.Errorf("%w: run id %q", ErrInvalidRun, run.ID)
	}

	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO lifesim_runs (run_id, mode, stop_reason, scenario, locale, started_at, ended_at,
				frames, final_day, final_hour, hunger, sleep, happiness, willpower, money,
				employment_chance, game_over, outcome_reason, steps_fired, steps_failed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
			id, run.Mode, run.Reason, run.Scenario, run.Locale, run.StartedAt, run.EndedAt,
			run.Frames, run.FinalDay, run.FinalHour,
			run.Stats.Hunger, run.Stats.Sleep, run.Stats.Happiness, run.Stats.Willpower,
			run.Stats.Money, run.Stats.EmploymentChance,
			run.GameOver, run.OutcomeReason, run.StepsFired, run.StepsFailed,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s", ErrDuplicateRun, run.ID)
			}
			return fmt.Errorf("inserting run: %w", err)
		}

		if len(samples) == 0 {
			return nil
		}

		rows := make([][]any, len(samples))
		for i, e := range samples {
			var recorded any
			if !e.Timestamp.IsZero() {
				recorded = e.Timestamp
			}
			rows[i] = []any{
				id, int32(i), recorded, int32(e.Day), e.Hour,
				e.Hunger, e.Sleep, int32(e.Happiness), int32(e.Willpower), int32(e.Money),
				e.EmploymentChance, e.Speed, e.Paused, e.GameOver,
			}
		}

		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{database.SamplesTable},
			database.SampleColumns,
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copying samples: %w", err)
		}
		if n != int64(len(samples)) {
			return fmt.Errorf("copied %d of %d samples", n, len(samples))
		}
		return nil
	})
}

// ListRuns returns stored runs, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT r.run_id::text, r.mode, r.stop_reason, COALESCE(r.scenario, ''), COALESCE(r.locale, ''),
			r.started_at, r.ended_at, r.frames, r.final_day, r.final_hour,
			r.hunger, r.sleep, r.happiness, r.willpower, r.money, r.employment_chance,
			r.game_over, COALESCE(r.outcome_reason, ''), r.steps_fired, r.steps_failed,
			(SELECT COUNT(*) FROM lifesim_samples s WHERE s.run_id = r.run_id)
		FROM lifesim_runs r
		ORDER BY r.started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		err := rows.Scan(
			&r.ID, &r.Mode, &r.Reason, &r.Scenario, &r.Locale,
			&r.StartedAt, &r.EndedAt, &r.Frames, &r.FinalDay, &r.FinalHour,
			&r.Stats.Hunger, &r.Stats.Sleep, &r.Stats.Happiness, &r.Stats.Willpower,
			&r.Stats.Money, &r.Stats.EmploymentChance,
			&r.GameOver, &r.OutcomeReason, &r.StepsFired, &r.StepsFailed,
			&r.SampleCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Stats.Exhausted = r.GameOver
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
