package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BTreeMap/Brenda/internal/models"
)

// DefaultDirPermissions defines the default permissions for state directories.
const DefaultDirPermissions = 0755

// JSONFileStore persists one JSON document per user under a directory.
// Writes go to a temp file that is renamed over the target.
type JSONFileStore struct {
	dir    string
	logger *slog.Logger
}

// NewJSONFileStore creates the directory if needed and returns the store.
func NewJSONFileStore(opts ...Option) (*JSONFileStore, error) {
	cfg := applyOpts(opts)
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("lead store directory not set")
	}
	dir := strings.TrimPrefix(cfg.DSN, "dir:")
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		cfg.Logger.Error("JSONFileStore: failed to create directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create lead directory: %w", err)
	}
	cfg.Logger.Debug("JSONFileStore: directory verified/created", "dir", dir)
	return &JSONFileStore{dir: dir, logger: cfg.Logger}, nil
}

// path maps a user id onto a file name. Ids are phone digits, but any path
// separators are replaced to keep records inside the directory.
func (s *JSONFileStore) path(userID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(userID)
	return filepath.Join(s.dir, "memory_"+safe+".json")
}

func (s *JSONFileStore) GetLead(_ context.Context, userID string) (*models.LeadMemory, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	data, err := os.ReadFile(s.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("JSONFileStore.GetLead: read failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to read lead %s: %w", userID, err)
	}
	var lead models.LeadMemory
	if err := json.Unmarshal(data, &lead); err != nil {
		s.logger.Error("JSONFileStore.GetLead: decode failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to decode lead %s: %w", userID, err)
	}
	return &lead, nil
}

func (s *JSONFileStore) SaveLead(_ context.Context, lead *models.LeadMemory) error {
	if err := validateLead(lead); err != nil {
		return err
	}
	data, err := json.MarshalIndent(lead, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode lead %s: %w", lead.UserID, err)
	}
	target := s.path(lead.UserID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		s.logger.Error("JSONFileStore.SaveLead: write failed", "error", err, "userID", lead.UserID)
		return fmt.Errorf("failed to write lead %s: %w", lead.UserID, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		s.logger.Error("JSONFileStore.SaveLead: rename failed", "error", err, "userID", lead.UserID)
		return fmt.Errorf("failed to replace lead %s: %w", lead.UserID, err)
	}
	s.logger.Debug("JSONFileStore.SaveLead: saved", "userID", lead.UserID, "bytes", len(data))
	return nil
}

func (s *JSONFileStore) Ping(context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

func (s *JSONFileStore) Close() error { return nil }
