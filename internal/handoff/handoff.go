// Package handoff notifies human advisors about leads that need a person:
// advisor requests, reported payments and escalated questions.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/Brenda/internal/models"
)

// Kind classifies a hand-off.
type Kind string

const (
	KindAdvisorRequest      Kind = "advisor_request"
	KindPaymentConfirmation Kind = "payment_confirmation"
	KindFAQEscalation       Kind = "faq_escalation"
)

// Event is a snapshot of the lead at hand-off time.
type Event struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name,omitempty"`
	Role           string    `json:"role,omitempty"`
	SelectedCourse string    `json:"selected_course,omitempty"`
	LeadScore      int       `json:"lead_score"`
	Stage          string    `json:"stage"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewEvent builds an event from the current lead state.
func NewEvent(kind Kind, lead *models.LeadMemory, reason string, now time.Time) Event {
	return Event{
		ID:             uuid.New().String(),
		Kind:           kind,
		UserID:         lead.UserID,
		Name:           lead.Name,
		Role:           lead.Role,
		SelectedCourse: lead.SelectedCourse,
		LeadScore:      lead.LeadScore,
		Stage:          string(lead.Stage),
		Reason:         reason,
		CreatedAt:      now,
	}
}

// Notifier delivers hand-off events.
type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// MessageSender is the messaging surface used to reach the advisor.
type MessageSender interface {
	SendMessage(ctx context.Context, to string, body string) (string, error)
}

// AdvisorMessenger sends a WhatsApp summary to the advisor's phone.
type AdvisorMessenger struct {
	sender MessageSender
	phone  string
	logger *slog.Logger
}

// NewAdvisorMessenger creates a messenger targeting phone.
func NewAdvisorMessenger(sender MessageSender, phone string, logger *slog.Logger) *AdvisorMessenger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdvisorMessenger{sender: sender, phone: phone, logger: logger}
}

// Notify sends the summary. An unset advisor phone is an error.
func (a *AdvisorMessenger) Notify(ctx context.Context, evt Event) error {
	if a.phone == "" {
		return models.ErrEmptyRecipient
	}
	sid, err := a.sender.SendMessage(ctx, a.phone, FormatAdvisorSummary(evt))
	if err != nil {
		return fmt.Errorf("failed to notify advisor: %w", err)
	}
	a.logger.Info("AdvisorMessenger.Notify: advisor notified", "kind", evt.Kind, "userID", evt.UserID, "sid", sid)
	return nil
}

var kindTitles = map[Kind]string{
	KindAdvisorRequest:      "Solicitud de asesor",
	KindPaymentConfirmation: "Pago reportado, verificar transferencia",
	KindFAQEscalation:       "Pregunta escalada",
}

// FormatAdvisorSummary renders evt for the advisor chat.
func FormatAdvisorSummary(evt Event) string {
	title, ok := kindTitles[evt.Kind]
	if !ok {
		title = string(evt.Kind)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 %s\n", title)
	fmt.Fprintf(&b, "Lead: %s (+%s)\n", orDash(evt.Name), evt.UserID)
	if evt.Role != "" {
		fmt.Fprintf(&b, "Puesto: %s\n", evt.Role)
	}
	fmt.Fprintf(&b, "Curso: %s\n", orDash(evt.SelectedCourse))
	fmt.Fprintf(&b, "Lead score: %d\n", evt.LeadScore)
	if evt.Reason != "" {
		fmt.Fprintf(&b, "Detalle: %s\n", evt.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// MultiNotifier fans an event out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, evt Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordingNotifier keeps events in memory. Used in tests and dry runs.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *RecordingNotifier) Notify(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.Err
}

// Events returns a copy of the recorded events.
func (r *RecordingNotifier) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
