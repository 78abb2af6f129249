package models

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestNormalizeUserID(t *testing.T) {
	cases := map[string]string{
		"whatsapp:+5215551234567": "5215551234567",
		"+5551234567":             "5551234567",
		"5551234567":              "5551234567",
		"  whatsapp:123456 ":      "123456",
	}
	for in, want := range cases {
		if got := NormalizeUserID(in); got != want {
			t.Errorf("NormalizeUserID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIncomingMessageFromFields(t *testing.T) {
	msg := IncomingMessageFromFields(map[string]string{
		"From":        "whatsapp:+5551234567",
		"To":          "whatsapp:+14155238886",
		"Body":        "  Hola  ",
		"MessageSid":  "SM123",
		"ProfileName": "Ana",
	}, testNow)

	if msg.From != "5551234567" || msg.To != "14155238886" {
		t.Fatalf("addresses not normalized: %+v", msg)
	}
	if msg.Body != "Hola" || msg.MessageSID != "SM123" || msg.ProfileName != "Ana" {
		t.Errorf("unexpected message fields: %+v", msg)
	}
	if msg.UserID() != "5551234567" {
		t.Errorf("UserID() = %q", msg.UserID())
	}
}

func TestNewLeadMemoryDefaults(t *testing.T) {
	m := NewLeadMemory("5551234567", testNow)
	if m.Stage != StageFirstContact {
		t.Errorf("expected stage %q, got %q", StageFirstContact, m.Stage)
	}
	if !m.IsFirstInteraction() || !m.NeedsPrivacyFlow() || m.IsReadyForSalesAgent() {
		t.Errorf("unexpected derived state for new lead: %+v", m)
	}
	if m.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("new records should not need backfill, got schema %d", m.SchemaVersion)
	}
}

func TestPrivacyTransitions(t *testing.T) {
	m := NewLeadMemory("1", testNow)
	m.RequestPrivacy()
	if m.WaitingForResponse != WaitingPrivacyAcceptance || m.Stage != StagePrivacyFlow {
		t.Fatalf("after request: %+v", m)
	}
	m.AcceptPrivacy()
	if !m.PrivacyAccepted || m.WaitingForResponse != WaitingUserName {
		t.Fatalf("after accept: %+v", m)
	}
	m.RejectPrivacy()
	if m.Stage != StagePrivacyRejected || m.WaitingForResponse != WaitingNone || m.CurrentFlow != FlowNone {
		t.Fatalf("after reject: %+v", m)
	}
}

func TestAdjustLeadScoreClamps(t *testing.T) {
	m := NewLeadMemory("1", testNow)
	if got := m.AdjustLeadScore(500); got != MaxLeadScore {
		t.Errorf("expected clamp to %d, got %d", MaxLeadScore, got)
	}
	if got := m.AdjustLeadScore(-1000); got != MinLeadScore {
		t.Errorf("expected clamp to %d, got %d", MinLeadScore, got)
	}
}

func TestHistoryWindow(t *testing.T) {
	m := NewLeadMemory("1", testNow)
	for i := 0; i < MaxHistoryEntries+7; i++ {
		m.RecordMessage(RoleUser, "msg", testNow.Add(time.Duration(i)*time.Second))
	}
	if len(m.MessageHistory) != MaxHistoryEntries {
		t.Fatalf("history length = %d, want %d", len(m.MessageHistory), MaxHistoryEntries)
	}
	if got := m.RecentHistory(RecentHistoryWindow); len(got) != RecentHistoryWindow {
		t.Errorf("RecentHistory returned %d entries", len(got))
	}
	last := m.MessageHistory[len(m.MessageHistory)-1]
	if !last.Timestamp.Equal(testNow.Add(time.Duration(MaxHistoryEntries+6) * time.Second)) {
		t.Errorf("newest entry dropped: %v", last.Timestamp)
	}
}

func TestSelectCourseInvalidatesPurchaseFlags(t *testing.T) {
	m := NewLeadMemory("1", testNow)
	m.SelectCourse("ia-basico", testNow)
	m.MarkPurchaseBonusSent("workbook", testNow)

	m.SelectCourse("ia-basico", testNow)
	if !m.BankDataSent {
		t.Fatal("re-selecting the same course must keep the flags")
	}

	m.SelectCourse("ia-avanzado", testNow)
	if m.BankDataSent || m.PurchaseBonusSent {
		t.Errorf("switching course must invalidate purchase flags: %+v", m)
	}
	last := m.MessageHistory[len(m.MessageHistory)-1]
	if last.Action != ActionPurchaseFlagsInvalidated {
		t.Errorf("expected invalidation event, got %q", last.Action)
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := NewLeadMemory("1", testNow)
	m.AddInterest("ia")
	m.SetAutomationNeed("reportes", "semanales")
	c := m.Clone()
	c.AddInterest("marketing")
	c.AutomationNeeds["reportes"] = "diarios"
	if len(m.Interests) != 1 || m.AutomationNeeds["reportes"] != "semanales" {
		t.Errorf("clone shares state with original: %+v", m)
	}
}

func TestApplyExtractedInfoKeepsExistingName(t *testing.T) {
	m := NewLeadMemory("1", testNow)
	m.SetName("Ana")
	m.ApplyExtractedInfo(ExtractedInfo{
		Name:            "Otra",
		Role:            "Gerente de Marketing",
		Interests:       []string{"automatización", "automatización"},
		AutomationNeeds: map[string]string{"reportes": "semanales"},
		InterestLevel:   "high",
	})
	if m.Name != "Ana" {
		t.Errorf("name overwritten: %q", m.Name)
	}
	if m.Role != "Gerente de Marketing" || len(m.Interests) != 1 || m.InterestLevel != "high" {
		t.Errorf("extracted info not applied: %+v", m)
	}
}

func TestCoursePriceLabel(t *testing.T) {
	c := Course{Price: 4500, Currency: "MXN"}
	if got := c.PriceLabel(); got != "$4,500 MXN" {
		t.Errorf("PriceLabel() = %q", got)
	}
	if got := (Course{}).PriceLabel(); got != "consultar" {
		t.Errorf("zero price label = %q", got)
	}
}

func TestAddSignalIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOf(rapid.StringMatching(`[a-z]{1,8}`)).Draw(t, "values")
		m := NewLeadMemory("1", testNow)
		for _, v := range values {
			m.AddInterest(v)
			m.AddBuyingSignal(v)
			m.AddPainPoint(v)
		}
		before := append([]string{}, m.Interests...)
		for _, v := range values {
			if m.AddInterest(v) {
				t.Fatalf("re-adding %q changed interests", v)
			}
			m.AddBuyingSignal(v)
			m.AddPainPoint(v)
		}
		if len(before) != len(m.Interests) || len(m.BuyingSignals) != len(before) || len(m.PainPoints) != len(before) {
			t.Fatalf("lists changed on re-append: %v -> %v", before, m.Interests)
		}
	})
}

func TestLeadScoreStaysBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		deltas := rapid.SliceOf(rapid.IntRange(-200, 200)).Draw(t, "deltas")
		m := NewLeadMemory("1", testNow)
		for _, d := range deltas {
			got := m.AdjustLeadScore(d)
			if got < MinLeadScore || got > MaxLeadScore {
				t.Fatalf("score %d out of bounds after delta %d", got, d)
			}
		}
	})
}
