package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/BTreeMap/Brenda/internal/handoff"
	"github.com/BTreeMap/Brenda/internal/models"
)

// Route names reported in ProcessResult.Route and in metrics.
const (
	RoutePrivacy         = "privacy"
	RoutePrivacyRejected = "privacy_rejected"
	RouteAnnouncement    = "announcement"
	RouteAd              = "ad"
	RouteWelcome         = "welcome"
	RouteContact         = "contact"
	RoutePostPurchase    = "post_purchase"
	RouteIntelligent     = "intelligent"
	RouteFallback        = "fallback"
	RouteError           = "error"
)

// turn carries the state of one inbound message through the handlers.
// Handlers mutate lead and queue replies and hand-offs; the processor sends
// and persists them afterwards.
type turn struct {
	msg    models.IncomingMessage
	lead   *models.LeadMemory
	text   string
	now    time.Time
	logger *slog.Logger

	replies  []models.OutboundMessage
	handoffs []handoff.Event
	// route is set by handlers that delegate to another flow's logic.
	route string
}

func (t *turn) reply(body string) {
	t.replies = append(t.replies, models.Text(body))
}

func (t *turn) replyMedia(body, mediaURL string) {
	t.replies = append(t.replies, models.OutboundMessage{Body: body, MediaURL: mediaURL})
}

func (t *turn) handoff(kind handoff.Kind, reason string) {
	t.handoffs = append(t.handoffs, handoff.NewEvent(kind, t.lead, reason, t.now))
}

// handler either claims the message (true) or declines so the next route is
// tried. A returned error is treated as a decline.
type handler func(ctx context.Context, t *turn) (bool, error)

type route struct {
	name string
	fn   handler
}
