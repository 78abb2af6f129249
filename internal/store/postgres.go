package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

const (
	postgresSelectLead = `SELECT data FROM lead_memories WHERE user_id = $1`
	postgresUpsertLead = `INSERT INTO lead_memories (user_id, stage, lead_score, data, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
    stage = EXCLUDED.stage,
    lead_score = EXCLUDED.lead_score,
    data = EXCLUDED.data,
    updated_at = EXCLUDED.updated_at`
)

// PostgresStore keeps lead memory in a PostgreSQL JSONB column.
type PostgresStore struct {
	sqlLeadStore
}

// NewPostgresStore connects, configures the pool and applies migrations.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	cfg := applyOpts(opts)
	log := cfg.Logger
	log.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	if cfg.DSN == "" {
		log.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open(DriverPostgres, cfg.DSN)
	if err != nil {
		log.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		log.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Debug("Postgres migrations applied successfully")
	return newPostgresStoreFromDB(db, log), nil
}

func newPostgresStoreFromDB(db *sql.DB, log *slog.Logger) *PostgresStore {
	return &PostgresStore{sqlLeadStore{
		db:        db,
		name:      "PostgresStore",
		selectSQL: postgresSelectLead,
		upsertSQL: postgresUpsertLead,
		logger:    log,
	}}
}
