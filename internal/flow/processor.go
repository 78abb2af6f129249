// Package flow implements Brenda's conversation flows and the processor that
// routes each inbound message to exactly one of them.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/Brenda/internal/content"
	"github.com/BTreeMap/Brenda/internal/genai"
	"github.com/BTreeMap/Brenda/internal/handoff"
	"github.com/BTreeMap/Brenda/internal/intent"
	"github.com/BTreeMap/Brenda/internal/memory"
	"github.com/BTreeMap/Brenda/internal/metrics"
	"github.com/BTreeMap/Brenda/internal/models"
	"github.com/BTreeMap/Brenda/internal/util"
)

// Opts configures a Processor.
type Opts struct {
	Analyzer genai.Analyzer
	Notifier handoff.Notifier
	Metrics  *metrics.Collector
	Gateway  Sender
	Bank     models.BankDetails
	Logger   *slog.Logger
	Now      func() time.Time
}

// Option configures a Processor.
type Option func(*Opts)

// WithAnalyzer enables LLM intent analysis. Without it the keyword classifier is used.
func WithAnalyzer(a genai.Analyzer) Option {
	return func(o *Opts) { o.Analyzer = a }
}

// WithNotifier sets the hand-off notifier.
func WithNotifier(n handoff.Notifier) Option {
	return func(o *Opts) { o.Notifier = n }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Opts) { o.Metrics = c }
}

// WithGateway sets the outbound sender. Without one replies are only returned.
func WithGateway(g Sender) Option {
	return func(o *Opts) { o.Gateway = g }
}

// WithBankDetails sets the transfer details sent with a purchase bonus.
func WithBankDetails(b models.BankDetails) Option {
	return func(o *Opts) { o.Bank = b }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Opts) { o.Logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Now = now }
}

// Sender delivers replies to the user. *messaging.Gateway implements it.
type Sender interface {
	SendAll(ctx context.Context, to string, msgs []models.OutboundMessage) []models.SendResult
}

// Processor is the inbound message use case: load memory, pick the owning
// flow, deliver its replies and persist the result.
type Processor struct {
	memory   *memory.Manager
	catalog  content.Catalog
	matchers *intent.Matchers

	analyzer genai.Analyzer
	notifier handoff.Notifier
	metrics  *metrics.Collector
	gateway  Sender
	bank     models.BankDetails
	logger   *slog.Logger
	now      func() time.Time

	waitingTable map[models.WaitingFor]route
}

// NewProcessor wires a processor.
func NewProcessor(mem *memory.Manager, catalog content.Catalog, matchers *intent.Matchers, opts ...Option) *Processor {
	cfg := Opts{Logger: slog.Default(), Now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if catalog == nil {
		catalog = content.NewStaticCatalog(nil, nil)
	}
	if matchers == nil {
		matchers = intent.NewMatchers(intent.Tables{})
	}
	p := &Processor{
		memory:   mem,
		catalog:  catalog,
		matchers: matchers,
		analyzer: cfg.Analyzer,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		gateway:  cfg.Gateway,
		bank:     cfg.Bank,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	p.waitingTable = p.waitingRoutes()
	return p
}

// ProcessMessage handles one inbound message end to end. It never returns an
// error: failures are reported through ProcessResult and, when possible, the
// user receives an apology instead of silence.
func (p *Processor) ProcessMessage(ctx context.Context, msg models.IncomingMessage) (result models.ProcessResult) {
	start := p.now()
	userID := msg.UserID()
	logger := p.logger.With("trace", util.NewTraceID(), "userID", userID)
	result.UserID = userID

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Processor.ProcessMessage: panic while processing message", "panic", r)
			result = p.apologize(ctx, userID, fmt.Errorf("panic: %v", r))
		}
		p.metrics.RecordMessage(result.Route)
		p.metrics.ObserveProcessing(p.now().Sub(start))
	}()

	if userID == "" {
		logger.Warn("Processor.ProcessMessage: message without sender")
		result.Route = RouteError
		result.Error = models.ErrEmptyUserID.Error()
		return result
	}

	lead, err := p.memory.Get(ctx, userID)
	if err != nil {
		logger.Error("Processor.ProcessMessage: failed to load lead memory", "error", err)
		return p.apologize(ctx, userID, err)
	}

	now := p.now()
	t := &turn{msg: msg, lead: lead, text: msg.Body, now: now, logger: logger}
	lead.SetDisplayName(msg.ProfileName)
	lead.RecordMessage(models.RoleUser, msg.Body, now)

	routeName := p.dispatch(ctx, t)
	lead.Touch(now)
	for _, r := range t.replies {
		lead.RecordMessage(models.RoleAssistant, r.Body, now)
	}

	result.Route = routeName
	result.Success = true
	for _, r := range t.replies {
		result.Responses = append(result.Responses, r.Body)
	}
	if p.gateway != nil && len(t.replies) > 0 {
		result.Sends = p.gateway.SendAll(ctx, userID, t.replies)
	}
	p.notifyHandoffs(ctx, logger, t.handoffs)
	result.Saved = p.memory.Save(ctx, lead)

	logger.Info("Processor.ProcessMessage: message processed",
		"route", routeName, "stage", lead.Stage, "waiting", lead.WaitingForResponse,
		"replies", len(t.replies), "saved", result.Saved)
	return result
}

// dispatch runs the resolved routes until one claims the message.
func (p *Processor) dispatch(ctx context.Context, t *turn) string {
	for _, r := range p.resolveRoutes(t.lead) {
		claimed, err := r.fn(ctx, t)
		if err != nil {
			t.logger.Warn("Processor.dispatch: handler failed, trying next route", "route", r.name, "error", err)
			continue
		}
		if claimed {
			if t.route != "" {
				return t.route
			}
			return r.name
		}
	}
	// handleFallback always claims; reaching here means the table is empty.
	t.reply(fallbackGreeting(t.lead.Name))
	return RouteFallback
}

func (p *Processor) apologize(ctx context.Context, userID string, cause error) models.ProcessResult {
	res := models.ProcessResult{
		UserID:    userID,
		Route:     RouteError,
		Responses: []string{msgApology},
		Error:     cause.Error(),
	}
	if p.gateway != nil && userID != "" {
		res.Sends = p.gateway.SendAll(ctx, userID, []models.OutboundMessage{models.Text(msgApology)})
	}
	return res
}

func (p *Processor) notifyHandoffs(ctx context.Context, logger *slog.Logger, events []handoff.Event) {
	for _, evt := range events {
		p.metrics.RecordHandoff(string(evt.Kind))
		if p.notifier == nil {
			logger.Warn("Processor.notifyHandoffs: no notifier configured, hand-off only logged", "kind", evt.Kind, "eventID", evt.ID)
			continue
		}
		if err := p.notifier.Notify(ctx, evt); err != nil {
			logger.Error("Processor.notifyHandoffs: failed to notify hand-off", "kind", evt.Kind, "error", err)
		}
	}
}
