package store

import (
	"context"
	"sync"

	"github.com/BTreeMap/Brenda/internal/models"
)

// InMemoryStore keeps lead records in a map. Used for tests and local runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	leads map[string]*models.LeadMemory
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{leads: make(map[string]*models.LeadMemory)}
}

func (s *InMemoryStore) GetLead(_ context.Context, userID string) (*models.LeadMemory, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[userID]
	if !ok {
		return nil, nil
	}
	return lead.Clone(), nil
}

func (s *InMemoryStore) SaveLead(_ context.Context, lead *models.LeadMemory) error {
	if err := validateLead(lead); err != nil {
		return err
	}
	s.mu.Lock()
	s.leads[lead.UserID] = lead.Clone()
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored leads.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}

func (s *InMemoryStore) Ping(context.Context) error { return nil }

func (s *InMemoryStore) Close() error { return nil }
