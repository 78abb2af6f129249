package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

const (
	sqliteSelectLead = `SELECT data FROM lead_memories WHERE user_id = ?`
	sqliteUpsertLead = `INSERT INTO lead_memories (user_id, stage, lead_score, data, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    stage = excluded.stage,
    lead_score = excluded.lead_score,
    data = excluded.data,
    updated_at = excluded.updated_at`
)

// SQLiteStore keeps lead memory in a local SQLite database.
type SQLiteStore struct {
	sqlLeadStore
}

// NewSQLiteStore opens (and migrates) the SQLite database named by the DSN.
// The parent directory is created when missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	cfg := applyOpts(opts)
	log := cfg.Logger
	log.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		log.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		log.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		log.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		log.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		log.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{sqlLeadStore{
		db:        db,
		name:      "SQLiteStore",
		selectSQL: sqliteSelectLead,
		upsertSQL: sqliteUpsertLead,
		logger:    log,
	}}, nil
}
