// Package memory manages per-user lead memory on top of a store.LeadStore.
//
// The manager hands out copies from an in-process cache, creates default
// records for unknown users and treats saves as best effort. Reads are not:
// a record that could not be loaded is never replaced by a default one.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/Brenda/internal/models"
	"github.com/BTreeMap/Brenda/internal/store"
)

// SaveFailureRecorder is notified whenever a save fails.
type SaveFailureRecorder interface {
	RecordSaveFailure()
}

// Opts configures a Manager.
type Opts struct {
	Logger   *slog.Logger
	Now      func() time.Time
	Failures SaveFailureRecorder
}

// Option configures a Manager.
type Option func(*Opts)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Opts) { o.Logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Now = now }
}

// WithSaveFailureRecorder registers a recorder for failed saves.
func WithSaveFailureRecorder(r SaveFailureRecorder) Option {
	return func(o *Opts) { o.Failures = r }
}

// Manager implements get-or-create and best-effort save for lead memory.
type Manager struct {
	store    store.LeadStore
	logger   *slog.Logger
	now      func() time.Time
	failures SaveFailureRecorder

	mu    sync.Mutex
	cache map[string]*models.LeadMemory
}

// NewManager creates a Manager backed by s.
func NewManager(s store.LeadStore, opts ...Option) *Manager {
	cfg := Opts{Logger: slog.Default(), Now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Manager{
		store:    s,
		logger:   cfg.Logger,
		now:      cfg.Now,
		failures: cfg.Failures,
		cache:    make(map[string]*models.LeadMemory),
	}
}

// Get returns the user's record, loading it from the store on a cache miss and
// creating a default record when the user is unknown. A store read error is
// returned and nothing is cached, so a later Save cannot overwrite the stored
// record with a blank one.
func (m *Manager) Get(ctx context.Context, userID string) (*models.LeadMemory, error) {
	userID = models.NormalizeUserID(userID)
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}

	m.mu.Lock()
	cached, ok := m.cache[userID]
	m.mu.Unlock()
	if ok {
		return cached.Clone(), nil
	}

	lead, err := m.store.GetLead(ctx, userID)
	if err != nil {
		m.logger.Error("Manager.Get: store read failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to load lead memory for %s: %w", userID, err)
	}
	if lead == nil {
		lead = models.NewLeadMemory(userID, m.now())
		m.logger.Debug("Manager.Get: created default lead memory", "userID", userID)
	} else {
		lead.Normalize()
		if lead.SchemaVersion < models.CurrentSchemaVersion {
			m.backfill(lead)
		}
	}

	m.mu.Lock()
	m.cache[userID] = lead.Clone()
	m.mu.Unlock()
	return lead, nil
}

// Save persists the record and refreshes the cache. The cache is updated even
// when the store write fails so the running process keeps the latest state.
func (m *Manager) Save(ctx context.Context, lead *models.LeadMemory) bool {
	if lead == nil || lead.UserID == "" {
		m.logger.Error("Manager.Save: refusing to save lead without user id")
		return false
	}
	lead.UpdatedAt = m.now()

	m.mu.Lock()
	m.cache[lead.UserID] = lead.Clone()
	m.mu.Unlock()

	if err := m.store.SaveLead(ctx, lead); err != nil {
		m.logger.Error("Manager.Save: failed to persist lead memory", "error", err, "userID", lead.UserID)
		if m.failures != nil {
			m.failures.RecordSaveFailure()
		}
		return false
	}
	m.logger.Debug("Manager.Save: lead memory saved", "userID", lead.UserID, "stage", lead.Stage)
	return true
}

// Ping checks the underlying store.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

var bankHistoryMarkers = []string{
	"datos bancarios", "clabe", "transferencia", "cuenta bancaria", "número de cuenta",
	"numero de cuenta", "depósito", "deposito",
}

var announcementHistoryMarkers = []string{
	"anuncio del curso", "course_announcement",
}

// backfill derives the cached flags of a record written before flags were
// authoritative. It scans the recent history once and stamps the schema version
// so the scan never runs again for this record.
func (m *Manager) backfill(lead *models.LeadMemory) {
	bank, announced := ScanHistoryForFlags(lead.RecentHistory(models.RecentHistoryWindow))
	if bank && !lead.BankDataSent {
		lead.BankDataSent = true
		lead.PurchaseBonusSent = true
		m.logger.Warn("Manager.backfill: bank data flag missing but history shows it was sent",
			"userID", lead.UserID, "schemaVersion", lead.SchemaVersion)
	}
	if announced && !lead.CourseAnnouncementSent {
		lead.CourseAnnouncementSent = true
		m.logger.Warn("Manager.backfill: announcement flag missing but history shows it was sent",
			"userID", lead.UserID, "schemaVersion", lead.SchemaVersion)
	}
	lead.SchemaVersion = models.CurrentSchemaVersion
}

// ScanHistoryForFlags reports whether the entries show bank details or a
// course announcement having been sent.
func ScanHistoryForFlags(entries []models.HistoryEntry) (bankDataSent, announcementSent bool) {
	for _, e := range entries {
		switch e.Action {
		case models.ActionPurchaseBonusSent, models.ActionBankDataSent:
			bankDataSent = true
		case models.ActionCourseAnnouncementSent:
			announcementSent = true
		}
		if e.Role == models.RoleUser {
			continue
		}
		text := strings.ToLower(e.Content + " " + e.Description)
		if containsAny(text, bankHistoryMarkers) {
			bankDataSent = true
		}
		if containsAny(text, announcementHistoryMarkers) {
			announcementSent = true
		}
	}
	return bankDataSent, announcementSent
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
