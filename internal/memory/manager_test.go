package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BTreeMap/Brenda/internal/models"
	"github.com/BTreeMap/Brenda/internal/store"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type failingStore struct {
	*store.InMemoryStore
	readErr  error
	writeErr error
}

func (f *failingStore) GetLead(ctx context.Context, id string) (*models.LeadMemory, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.InMemoryStore.GetLead(ctx, id)
}

func (f *failingStore) SaveLead(ctx context.Context, lead *models.LeadMemory) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.InMemoryStore.SaveLead(ctx, lead)
}

type countingRecorder struct{ n int }

func (c *countingRecorder) RecordSaveFailure() { c.n++ }

func TestGetCreatesDefaultRecord(t *testing.T) {
	m := NewManager(store.NewInMemoryStore(), WithClock(clock))
	lead, err := m.Get(context.Background(), "whatsapp:+5551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.UserID != "5551234567" || lead.Stage != models.StageFirstContact {
		t.Errorf("unexpected default record: %+v", lead)
	}
	if !lead.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v", lead.CreatedAt)
	}
}

func TestGetRejectsEmptyID(t *testing.T) {
	m := NewManager(store.NewInMemoryStore())
	if _, err := m.Get(context.Background(), "  "); !errors.Is(err, models.ErrEmptyUserID) {
		t.Errorf("expected ErrEmptyUserID, got %v", err)
	}
}

func TestGetReturnsIndependentCopies(t *testing.T) {
	m := NewManager(store.NewInMemoryStore())
	ctx := context.Background()
	a, _ := m.Get(ctx, "1")
	a.SetName("Ana")
	b, _ := m.Get(ctx, "1")
	if b.Name != "" {
		t.Errorf("unsaved mutation leaked through the cache: %q", b.Name)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := store.NewInMemoryStore()
	m := NewManager(s, WithClock(clock))
	ctx := context.Background()

	lead, _ := m.Get(ctx, "1")
	lead.SetName("Ana")
	if !m.Save(ctx, lead) {
		t.Fatal("save failed")
	}

	fresh := NewManager(s)
	got, _ := fresh.Get(ctx, "1")
	if got.Name != "Ana" {
		t.Errorf("expected persisted name, got %q", got.Name)
	}
}

func TestSaveFailureIsBestEffort(t *testing.T) {
	rec := &countingRecorder{}
	fs := &failingStore{InMemoryStore: store.NewInMemoryStore(), writeErr: errors.New("disk full")}
	m := NewManager(fs, WithSaveFailureRecorder(rec))
	ctx := context.Background()

	lead, _ := m.Get(ctx, "1")
	lead.SetName("Ana")
	if m.Save(ctx, lead) {
		t.Fatal("expected save to report failure")
	}
	if rec.n != 1 {
		t.Errorf("expected 1 recorded failure, got %d", rec.n)
	}
	again, _ := m.Get(ctx, "1")
	if again.Name != "Ana" {
		t.Errorf("in-process state should survive a failed save, got %q", again.Name)
	}
}

func TestGetReadErrorKeepsStoredRecord(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{InMemoryStore: store.NewInMemoryStore()}
	stored := models.NewLeadMemory("1", fixedNow)
	stored.PrivacyAccepted = true
	stored.SetName("Ana")
	if err := fs.InMemoryStore.SaveLead(ctx, stored); err != nil {
		t.Fatal(err)
	}

	timeout := errors.New("timeout")
	fs.readErr = timeout
	m := NewManager(fs, WithClock(clock))
	if _, err := m.Get(ctx, "1"); !errors.Is(err, timeout) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}

	fs.readErr = nil
	lead, err := m.Get(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if !lead.PrivacyAccepted || lead.Name != "Ana" {
		t.Errorf("failed read must not cache a default record, got %+v", lead)
	}
}

func TestBackfillFromHistoryRunsOnce(t *testing.T) {
	s := store.NewInMemoryStore()
	ctx := context.Background()
	legacy := models.NewLeadMemory("1", fixedNow)
	legacy.SchemaVersion = 0
	legacy.RecordEvent(models.ActionPurchaseBonusSent, "bonus workbook", fixedNow)
	legacy.RecordMessage(models.RoleAssistant, "Aquí tienes el anuncio del curso", fixedNow)
	if err := s.SaveLead(ctx, legacy); err != nil {
		t.Fatal(err)
	}

	m := NewManager(s)
	lead, _ := m.Get(ctx, "1")
	if !lead.BankDataSent || !lead.PurchaseBonusSent || !lead.CourseAnnouncementSent {
		t.Fatalf("flags not backfilled: %+v", lead)
	}
	if lead.SchemaVersion != models.CurrentSchemaVersion {
		t.Errorf("schema version not stamped: %d", lead.SchemaVersion)
	}

	// Once stamped, the flag is authoritative even if history still mentions bank data.
	lead.BankDataSent = false
	m.Save(ctx, lead)
	reloaded, _ := NewManager(s).Get(ctx, "1")
	if reloaded.BankDataSent {
		t.Error("history scan must not run again on stamped records")
	}
}

func TestScanHistoryIgnoresUserMessages(t *testing.T) {
	bank, _ := ScanHistoryForFlags([]models.HistoryEntry{
		{Role: models.RoleUser, Content: "¿me pasas los datos bancarios?"},
	})
	if bank {
		t.Error("a user asking for bank data is not bank data being sent")
	}
	bank, _ = ScanHistoryForFlags([]models.HistoryEntry{
		{Role: models.RoleAssistant, Content: "Te comparto la CLABE para la transferencia"},
	})
	if !bank {
		t.Error("expected banking keywords in assistant message to count")
	}
}
