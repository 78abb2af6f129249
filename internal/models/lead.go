package models

import (
	"strings"
	"time"
)

// Stage is the coarse position of a lead in the sales conversation.
type Stage string

const (
	StageFirstContact    Stage = "first_contact"
	StagePrivacyFlow     Stage = "privacy_flow"
	StagePrivacyRejected Stage = "privacy_rejected"
	StageCourseSelection Stage = "course_selection"
	StageSalesAgent      Stage = "sales_agent"
	StagePurchaseIntent  Stage = "purchase_intent"
	StagePostPurchase    Stage = "post_purchase"
	StageAdvisorHandoff  Stage = "advisor_handoff"
)

// WaitingFor names the kind of input the conversation expects next.
type WaitingFor string

const (
	WaitingNone                WaitingFor = ""
	WaitingPrivacyAcceptance   WaitingFor = "privacy_acceptance"
	WaitingUserName            WaitingFor = "user_name"
	WaitingCourseSelection     WaitingFor = "course_selection"
	WaitingContactConfirmation WaitingFor = "contact_confirmation"
	WaitingPaymentReceipt      WaitingFor = "payment_receipt"
)

// FlowName identifies the flow that currently owns the conversation.
type FlowName string

const (
	FlowNone               FlowName = ""
	FlowPrivacy            FlowName = "privacy"
	FlowCourseSelection    FlowName = "course_selection"
	FlowCourseAnnouncement FlowName = "course_announcement"
	FlowAd                 FlowName = "ad"
	FlowContact            FlowName = "contact"
	FlowFAQ                FlowName = "faq"
	FlowPurchaseBonus      FlowName = "purchase_bonus"
	FlowPostPurchase       FlowName = "post_purchase"
	FlowSalesConversation  FlowName = "sales_conversation"
)

// History actions written by the flows. The purchase and announcement actions
// are also read by the one-time flag backfill.
const (
	ActionPrivacyRequested         = "privacy_requested"
	ActionPrivacyAccepted          = "privacy_accepted"
	ActionPrivacyRejected          = "privacy_rejected"
	ActionNameCollected            = "name_collected"
	ActionCourseSelected           = "course_selected"
	ActionCourseAnnouncementSent   = "course_announcement_sent"
	ActionAdCampaignDetected       = "ad_campaign_detected"
	ActionPurchaseBonusSent        = "purchase_bonus_sent"
	ActionBankDataSent             = "bank_data_sent"
	ActionPaymentConfirmed         = "payment_confirmed"
	ActionAdvisorContactRequested  = "advisor_contact_requested"
	ActionAdvisorContactConfirmed  = "advisor_contact_confirmed"
	ActionFAQAnswered              = "faq_answered"
	ActionPurchaseFlagsInvalidated = "purchase_flags_invalidated"
)

// History roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	// MaxHistoryEntries is the stored history window.
	MaxHistoryEntries = 20
	// RecentHistoryWindow is the number of entries handed to the intent analyzer
	// and scanned by the flag backfill.
	RecentHistoryWindow = 5
	// MinLeadScore and MaxLeadScore bound every lead score adjustment.
	MinLeadScore = 0
	MaxLeadScore = 100
	// DefaultLeadScore is the score of a freshly created lead.
	DefaultLeadScore = 50
	// CurrentSchemaVersion marks records whose flags are authoritative.
	// Records below it get a single history backfill on load.
	CurrentSchemaVersion = 2
)

// HistoryEntry is one structured event in the conversation history.
type HistoryEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Role        string    `json:"role,omitempty"`
	Content     string    `json:"content,omitempty"`
	Action      string    `json:"action,omitempty"`
	Description string    `json:"description,omitempty"`
}

// LeadMemory is the persisted conversational state and CRM profile of one user.
type LeadMemory struct {
	UserID              string `json:"user_id"`
	Name                string `json:"name"`
	Role                string `json:"role"`
	WhatsAppDisplayName string `json:"whatsapp_display_name,omitempty"`

	Stage              Stage      `json:"stage"`
	CurrentFlow        FlowName   `json:"current_flow"`
	FlowStep           int        `json:"flow_step"`
	WaitingForResponse WaitingFor `json:"waiting_for_response"`

	PrivacyAccepted  bool `json:"privacy_accepted"`
	PrivacyRequested bool `json:"privacy_requested"`

	LeadScore         int               `json:"lead_score"`
	Interests         []string          `json:"interests"`
	PainPoints        []string          `json:"pain_points"`
	BuyingSignals     []string          `json:"buying_signals"`
	AutomationNeeds   map[string]string `json:"automation_needs"`
	InterestLevel     string            `json:"interest_level"`
	BuyerPersonaMatch string            `json:"buyer_persona_match,omitempty"`

	MessageHistory []HistoryEntry `json:"message_history"`

	SelectedCourse   string   `json:"selected_course"`
	AvailableCourses []string `json:"available_courses"`
	PendingCourseID  string   `json:"pending_course_id,omitempty"`

	BankDataSent            bool `json:"bank_data_sent"`
	PurchaseBonusSent       bool `json:"purchase_bonus_sent"`
	CourseAnnouncementSent  bool `json:"course_announcement_sent"`
	AdvisorContactRequested bool `json:"advisor_contact_requested"`
	PaymentConfirmed        bool `json:"payment_confirmed"`

	InteractionCount int       `json:"interaction_count"`
	SchemaVersion    int       `json:"schema_version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	LastInteraction  time.Time `json:"last_interaction"`
}

// NewLeadMemory returns the all-default record for a user seen for the first time.
func NewLeadMemory(userID string, now time.Time) *LeadMemory {
	return &LeadMemory{
		UserID:          userID,
		Stage:           StageFirstContact,
		LeadScore:       DefaultLeadScore,
		Interests:       []string{},
		PainPoints:      []string{},
		BuyingSignals:   []string{},
		AutomationNeeds: map[string]string{},
		MessageHistory:  []HistoryEntry{},
		SchemaVersion:   CurrentSchemaVersion,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone returns a deep copy so cached records are never shared between requests.
func (m *LeadMemory) Clone() *LeadMemory {
	if m == nil {
		return nil
	}
	c := *m
	c.Interests = append([]string{}, m.Interests...)
	c.PainPoints = append([]string{}, m.PainPoints...)
	c.BuyingSignals = append([]string{}, m.BuyingSignals...)
	c.AvailableCourses = append([]string(nil), m.AvailableCourses...)
	c.MessageHistory = append([]HistoryEntry{}, m.MessageHistory...)
	c.AutomationNeeds = make(map[string]string, len(m.AutomationNeeds))
	for k, v := range m.AutomationNeeds {
		c.AutomationNeeds[k] = v
	}
	return &c
}

// Normalize fills nil collections after decoding a record written by an older version.
func (m *LeadMemory) Normalize() {
	if m.Interests == nil {
		m.Interests = []string{}
	}
	if m.PainPoints == nil {
		m.PainPoints = []string{}
	}
	if m.BuyingSignals == nil {
		m.BuyingSignals = []string{}
	}
	if m.AutomationNeeds == nil {
		m.AutomationNeeds = map[string]string{}
	}
	if m.MessageHistory == nil {
		m.MessageHistory = []HistoryEntry{}
	}
	if m.Stage == "" {
		m.Stage = StageFirstContact
	}
	m.LeadScore = clampScore(m.LeadScore)
}

// IsFirstInteraction reports whether no message from this user was processed yet.
func (m *LeadMemory) IsFirstInteraction() bool {
	return m.InteractionCount == 0
}

// NeedsPrivacyFlow reports whether consent is still missing.
func (m *LeadMemory) NeedsPrivacyFlow() bool {
	return !m.PrivacyAccepted
}

// HasName reports whether a validated name was collected.
func (m *LeadMemory) HasName() bool {
	return strings.TrimSpace(m.Name) != ""
}

// IsReadyForSalesAgent reports whether the lead may talk to the sales agent.
func (m *LeadMemory) IsReadyForSalesAgent() bool {
	return m.PrivacyAccepted && m.HasName()
}

// NeedsCourseSelection reports whether the course menu should be offered.
func (m *LeadMemory) NeedsCourseSelection() bool {
	return m.IsReadyForSalesAgent() && m.SelectedCourse == ""
}

// SetStage moves the lead to the given stage.
func (m *LeadMemory) SetStage(s Stage) {
	m.Stage = s
}

// StartFlow hands ownership of the conversation to flow at the given step.
func (m *LeadMemory) StartFlow(flow FlowName, step int) {
	m.CurrentFlow = flow
	m.FlowStep = step
}

// WaitFor records the input the owning flow expects next.
func (m *LeadMemory) WaitFor(w WaitingFor) {
	m.WaitingForResponse = w
}

// CompleteFlow releases the conversation: no owning flow and nothing awaited.
func (m *LeadMemory) CompleteFlow() {
	m.CurrentFlow = FlowNone
	m.FlowStep = 0
	m.WaitingForResponse = WaitingNone
}

// RequestPrivacy marks the consent request as sent.
func (m *LeadMemory) RequestPrivacy() {
	m.PrivacyRequested = true
	m.Stage = StagePrivacyFlow
	m.StartFlow(FlowPrivacy, 1)
	m.WaitFor(WaitingPrivacyAcceptance)
}

// AcceptPrivacy records consent and moves on to the name request.
func (m *LeadMemory) AcceptPrivacy() {
	m.PrivacyAccepted = true
	m.Stage = StagePrivacyFlow
	m.StartFlow(FlowPrivacy, 2)
	m.WaitFor(WaitingUserName)
}

// RejectPrivacy ends the privacy flow in the rejected state.
func (m *LeadMemory) RejectPrivacy() {
	m.PrivacyAccepted = false
	m.Stage = StagePrivacyRejected
	m.CompleteFlow()
}

// SetName stores a validated name.
func (m *LeadMemory) SetName(name string) {
	m.Name = strings.TrimSpace(name)
}

// SetRole stores a validated professional role.
func (m *LeadMemory) SetRole(role string) {
	m.Role = strings.TrimSpace(role)
}

// SetDisplayName stores the WhatsApp profile name when one is provided.
func (m *LeadMemory) SetDisplayName(name string) {
	if name = strings.TrimSpace(name); name != "" {
		m.WhatsAppDisplayName = name
	}
}

// SetInterestLevel stores the analyzer's interest level estimate.
func (m *LeadMemory) SetInterestLevel(level string) {
	if level = strings.TrimSpace(level); level != "" {
		m.InterestLevel = level
	}
}

// SetBuyerPersona stores the buyer persona tag used for bonus selection.
func (m *LeadMemory) SetBuyerPersona(persona string) {
	if persona = strings.TrimSpace(persona); persona != "" {
		m.BuyerPersonaMatch = persona
	}
}

// SetAutomationNeed records an automation need under key.
func (m *LeadMemory) SetAutomationNeed(key, value string) {
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	if m.AutomationNeeds == nil {
		m.AutomationNeeds = map[string]string{}
	}
	m.AutomationNeeds[key] = value
}

// AddInterest appends an interest unless already present.
func (m *LeadMemory) AddInterest(v string) bool {
	return appendUnique(&m.Interests, v)
}

// AddPainPoint appends a pain point unless already present.
func (m *LeadMemory) AddPainPoint(v string) bool {
	return appendUnique(&m.PainPoints, v)
}

// AddBuyingSignal appends a buying signal unless already present.
func (m *LeadMemory) AddBuyingSignal(v string) bool {
	return appendUnique(&m.BuyingSignals, v)
}

func appendUnique(list *[]string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, existing := range *list {
		if strings.EqualFold(existing, v) {
			return false
		}
	}
	*list = append(*list, v)
	return true
}

// AdjustLeadScore applies delta and clamps the result to [MinLeadScore, MaxLeadScore].
func (m *LeadMemory) AdjustLeadScore(delta int) int {
	m.LeadScore = clampScore(m.LeadScore + delta)
	return m.LeadScore
}

func clampScore(score int) int {
	if score < MinLeadScore {
		return MinLeadScore
	}
	if score > MaxLeadScore {
		return MaxLeadScore
	}
	return score
}

// SelectCourse sets the selected course. Choosing a different course than the
// one purchase flags were recorded for invalidates those flags.
func (m *LeadMemory) SelectCourse(courseID string, now time.Time) {
	if m.SelectedCourse != "" && m.SelectedCourse != courseID && (m.BankDataSent || m.PurchaseBonusSent) {
		m.BankDataSent = false
		m.PurchaseBonusSent = false
		m.PaymentConfirmed = false
		m.RecordEvent(ActionPurchaseFlagsInvalidated, "course changed from "+m.SelectedCourse, now)
	}
	m.SelectedCourse = courseID
	m.PendingCourseID = ""
}

// SetAvailableCourses stores the course ids in the order they were presented.
func (m *LeadMemory) SetAvailableCourses(ids []string) {
	m.AvailableCourses = append([]string(nil), ids...)
}

// MarkPurchaseBonusSent records that the bonus and bank transfer details went out.
func (m *LeadMemory) MarkPurchaseBonusSent(bonusID string, now time.Time) {
	m.PurchaseBonusSent = true
	m.BankDataSent = true
	m.RecordEvent(ActionPurchaseBonusSent, "bonus "+bonusID+" with bank transfer details", now)
}

// MarkBankDataSent records bank transfer details sent without a bonus.
func (m *LeadMemory) MarkBankDataSent(now time.Time) {
	m.BankDataSent = true
	m.RecordEvent(ActionBankDataSent, "bank transfer details without bonus", now)
}

// MarkCourseAnnouncementSent records that the course announcement went out.
func (m *LeadMemory) MarkCourseAnnouncementSent(courseID string, now time.Time) {
	m.CourseAnnouncementSent = true
	m.RecordEvent(ActionCourseAnnouncementSent, "course "+courseID, now)
}

// MarkPaymentConfirmed records the user's payment confirmation.
func (m *LeadMemory) MarkPaymentConfirmed(now time.Time) {
	m.PaymentConfirmed = true
	m.RecordEvent(ActionPaymentConfirmed, "user reported transfer", now)
}

// MarkAdvisorContactRequested records a confirmed advisor hand-off.
func (m *LeadMemory) MarkAdvisorContactRequested(now time.Time) {
	m.AdvisorContactRequested = true
	m.RecordEvent(ActionAdvisorContactConfirmed, "advisor notified", now)
}

// RecordMessage appends a conversational turn to the history.
func (m *LeadMemory) RecordMessage(role, content string, now time.Time) {
	m.appendHistory(HistoryEntry{Timestamp: now, Role: role, Content: content})
}

// RecordEvent appends a structured action to the history.
func (m *LeadMemory) RecordEvent(action, description string, now time.Time) {
	m.appendHistory(HistoryEntry{Timestamp: now, Role: RoleSystem, Action: action, Description: description})
}

func (m *LeadMemory) appendHistory(e HistoryEntry) {
	m.MessageHistory = append(m.MessageHistory, e)
	if n := len(m.MessageHistory); n > MaxHistoryEntries {
		m.MessageHistory = append([]HistoryEntry{}, m.MessageHistory[n-MaxHistoryEntries:]...)
	}
}

// RecentHistory returns up to the last n history entries.
func (m *LeadMemory) RecentHistory(n int) []HistoryEntry {
	if n <= 0 || len(m.MessageHistory) == 0 {
		return nil
	}
	if n > len(m.MessageHistory) {
		n = len(m.MessageHistory)
	}
	return append([]HistoryEntry{}, m.MessageHistory[len(m.MessageHistory)-n:]...)
}

// Touch counts one processed interaction.
func (m *LeadMemory) Touch(now time.Time) {
	m.InteractionCount++
	m.LastInteraction = now
	m.UpdatedAt = now
}

// ExtractedInfo is the profile data an intent analyzer pulled out of a message.
type ExtractedInfo struct {
	Name            string            `json:"name,omitempty"`
	Role            string            `json:"role,omitempty"`
	Interests       []string          `json:"interests,omitempty"`
	PainPoints      []string          `json:"pain_points,omitempty"`
	AutomationNeeds map[string]string `json:"automation_needs,omitempty"`
	InterestLevel   string            `json:"interest_level,omitempty"`
	BuyerPersona    string            `json:"buyer_persona,omitempty"`
}

// ApplyExtractedInfo merges analyzer output into the record. Name and role are
// only filled when empty; callers validate role before passing it in.
func (m *LeadMemory) ApplyExtractedInfo(info ExtractedInfo) {
	if !m.HasName() && strings.TrimSpace(info.Name) != "" {
		m.SetName(info.Name)
	}
	if m.Role == "" && info.Role != "" {
		m.SetRole(info.Role)
	}
	for _, v := range info.Interests {
		m.AddInterest(v)
	}
	for _, v := range info.PainPoints {
		m.AddPainPoint(v)
	}
	for k, v := range info.AutomationNeeds {
		m.SetAutomationNeed(k, v)
	}
	m.SetInterestLevel(info.InterestLevel)
	m.SetBuyerPersona(info.BuyerPersona)
}
