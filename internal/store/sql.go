package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/Brenda/internal/models"
)

// sqlLeadStore holds the queries shared by the SQLite and Postgres backends.
// The record is stored as a JSON document; stage and score are duplicated
// into columns for ad-hoc reporting.
type sqlLeadStore struct {
	db        *sql.DB
	name      string
	selectSQL string
	upsertSQL string
	logger    *slog.Logger
}

func (s *sqlLeadStore) GetLead(ctx context.Context, userID string) (*models.LeadMemory, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	var data string
	err := s.db.QueryRowContext(ctx, s.selectSQL, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug(s.name+".GetLead: no record", "userID", userID)
		return nil, nil
	}
	if err != nil {
		s.logger.Error(s.name+".GetLead: query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query lead %s: %w", userID, err)
	}
	var lead models.LeadMemory
	if err := json.Unmarshal([]byte(data), &lead); err != nil {
		s.logger.Error(s.name+".GetLead: decode failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to decode lead %s: %w", userID, err)
	}
	return &lead, nil
}

func (s *sqlLeadStore) SaveLead(ctx context.Context, lead *models.LeadMemory) error {
	if err := validateLead(lead); err != nil {
		return err
	}
	data, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to encode lead %s: %w", lead.UserID, err)
	}
	_, err = s.db.ExecContext(ctx, s.upsertSQL, lead.UserID, string(lead.Stage), lead.LeadScore, string(data), lead.UpdatedAt)
	if err != nil {
		s.logger.Error(s.name+".SaveLead: upsert failed", "error", err, "userID", lead.UserID)
		return fmt.Errorf("failed to save lead %s: %w", lead.UserID, err)
	}
	s.logger.Debug(s.name+".SaveLead: saved", "userID", lead.UserID, "stage", lead.Stage)
	return nil
}

func (s *sqlLeadStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlLeadStore) Close() error {
	return s.db.Close()
}
