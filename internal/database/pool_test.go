package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/myorg/lifesim/internal/config"
)

func getTestConfig() *config.DatabaseConfig {
	cfg := &config.DatabaseConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		DBName:  "postgres",
		SSLMode: "disable",
	}

	if v := os.Getenv("PGHOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PGUSER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("PGPASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("PGDATABASE"); v != "" {
		cfg.DBName = v
	}

	return cfg
}

func skipIfNoPostgres(t *testing.T) {
	if os.Getenv("PGHOST") == "" && os.Getenv("PG_TEST") == "" {
		t.Skip("Skipping integration test: set PGHOST or PG_TEST=1 to run")
	}
}

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	skipIfNoPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Connect(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()

	if cfg.MinConns != 0 {
		t.Errorf("expected MinConns 0, got %d", cfg.MinConns)
	}
	if cfg.MaxConns != 4 {
		t.Errorf("expected MaxConns 4, got %d", cfg.MaxConns)
	}
	if cfg.MaxConnLifetime != 30*time.Minute {
		t.Errorf("expected MaxConnLifetime 30m, got %v", cfg.MaxConnLifetime)
	}
	if cfg.HealthCheckPeriod != 30*time.Second {
		t.Errorf("expected HealthCheckPeriod 30s, got %v", cfg.HealthCheckPeriod)
	}
}

func TestNewPool_NilConfig(t *testing.T) {
	if _, err := NewPool(context.Background(), nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestNewPoolWithConfig(t *testing.T) {
	skipIfNoPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolCfg := PoolConfig{
		MinConns:          1,
		MaxConns:          5,
		MaxConnLifetime:   10 * time.Minute,
		MaxConnIdleTime:   2 * time.Minute,
		HealthCheckPeriod: 15 * time.Second,
	}

	pool, err := NewPoolWithConfig(ctx, getTestConfig(), poolCfg)
	if err != nil {
		t.Fatalf("NewPoolWithConfig failed: %v", err)
	}
	defer pool.Close()

	if stats := pool.Stats(); stats.MaxConns() != 5 {
		t.Errorf("expected MaxConns 5, got %d", stats.MaxConns())
	}
}

func TestHealthCheck(t *testing.T) {
	pool := newTestPool(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
	if err := pool.Exec(ctx, "SELECT 1"); err != nil {
		t.Errorf("Exec failed: %v", err)
	}
}

func TestInTx(t *testing.T) {
	pool := newTestPool(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := pool.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "SELECT 1")
		return err
	})
	if err != nil {
		t.Errorf("InTx failed: %v", err)
	}

	wantErr := errors.New("abort")
	err = pool.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT 1"); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
}

func TestCreateAndDropResultSchema(t *testing.T) {
	pool := newTestPool(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = DropResultSchema(ctx, pool.Pool())

	if err := CreateResultSchema(ctx, pool.Pool()); err != nil {
		t.Fatalf("CreateResultSchema failed: %v", err)
	}
	// Idempotent.
	if err := CreateResultSchema(ctx, pool.Pool()); err != nil {
		t.Fatalf("second CreateResultSchema failed: %v", err)
	}

	stats, err := GetTableStats(ctx, pool.Pool())
	if err != nil {
		t.Fatalf("GetTableStats failed: %v", err)
	}
	if stats.Runs != 0 || stats.Samples != 0 {
		t.Errorf("expected empty tables, got %+v", stats)
	}

	if err := DropResultSchema(ctx, pool.Pool()); err != nil {
		t.Fatalf("DropResultSchema failed: %v", err)
	}
}
