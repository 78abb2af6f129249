// Package store provides lead memory storage backends for Brenda.
//
// Every backend implements the LeadStore key-value contract: one record per
// normalized user id, read whole and written whole. Backends do not lock;
// concurrent writers for the same user overwrite each other.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/Brenda/internal/models"
)

// Driver names returned by DetectDSNType.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// LeadStore is the persistence contract for lead memory.
type LeadStore interface {
	// GetLead returns the stored record or (nil, nil) when the user is unknown.
	GetLead(ctx context.Context, userID string) (*models.LeadMemory, error)
	// SaveLead writes the whole record, replacing any previous version.
	SaveLead(ctx context.Context, lead *models.LeadMemory) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Opts holds configuration for building a LeadStore.
type Opts struct {
	DSN    string
	Logger *slog.Logger
}

// Option configures a LeadStore.
type Option func(*Opts)

// WithDSN sets the connection string. Its shape selects the backend, see DetectDSNType.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithLogger sets the logger used by the backend.
func WithLogger(l *slog.Logger) Option {
	return func(o *Opts) {
		o.Logger = l
	}
}

func applyOpts(opts []Option) Opts {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// DetectDSNType returns the driver name for a connection string:
// postgres URLs or key=value strings, redis URLs, SQLite files, an empty
// string for the in-memory store and any other value as a JSON file directory.
func DetectDSNType(dsn string) string {
	d := strings.TrimSpace(dsn)
	lower := strings.ToLower(d)
	switch {
	case d == "" || lower == DriverMemory:
		return DriverMemory
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"),
		strings.Contains(lower, "host=") && strings.Contains(lower, "dbname="):
		return DriverPostgres
	case strings.HasPrefix(lower, "redis://"), strings.HasPrefix(lower, "rediss://"):
		return DriverRedis
	case strings.HasPrefix(lower, "file:"), strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"),
		strings.Contains(lower, ".db?"):
		return DriverSQLite
	default:
		return DriverFile
	}
}

// New builds the backend selected by the configured DSN.
func New(opts ...Option) (LeadStore, error) {
	cfg := applyOpts(opts)
	driver := DetectDSNType(cfg.DSN)
	cfg.Logger.Debug("store.New: selecting lead store backend", "driver", driver)

	switch driver {
	case DriverMemory:
		return NewInMemoryStore(), nil
	case DriverPostgres:
		return NewPostgresStore(opts...)
	case DriverSQLite:
		return NewSQLiteStore(opts...)
	case DriverRedis:
		return NewRedisStore(opts...)
	case DriverFile:
		return NewJSONFileStore(opts...)
	}
	return nil, fmt.Errorf("unsupported lead store DSN type %q", driver)
}

func validateLead(lead *models.LeadMemory) error {
	if lead == nil || strings.TrimSpace(lead.UserID) == "" {
		return models.ErrEmptyUserID
	}
	return nil
}
