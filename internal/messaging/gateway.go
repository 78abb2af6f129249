package messaging

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/BTreeMap/Brenda/internal/models"
)

// Typing simulation defaults.
const (
	DefaultCharsPerSecond = 40.0
	DefaultMinTypingDelay = 500 * time.Millisecond
	DefaultMaxTypingDelay = 8 * time.Second
)

// GatewayOpts configures a Gateway.
type GatewayOpts struct {
	TypingEnabled  bool
	CharsPerSecond float64
	MinDelay       time.Duration
	MaxDelay       time.Duration
	// SendRate caps deliveries per second across all recipients; zero is unlimited.
	SendRate  float64
	SendBurst int
	Logger    *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*GatewayOpts)

// WithTypingSimulation enables or disables the pre-send delay.
func WithTypingSimulation(enabled bool) GatewayOption {
	return func(o *GatewayOpts) { o.TypingEnabled = enabled }
}

// WithTypingSpeed sets the simulated typing speed in characters per second.
func WithTypingSpeed(cps float64) GatewayOption {
	return func(o *GatewayOpts) { o.CharsPerSecond = cps }
}

// WithTypingBounds sets the delay clamp.
func WithTypingBounds(lo, hi time.Duration) GatewayOption {
	return func(o *GatewayOpts) {
		o.MinDelay = lo
		o.MaxDelay = hi
	}
}

// WithSendRate limits deliveries to perSecond with the given burst.
func WithSendRate(perSecond float64, burst int) GatewayOption {
	return func(o *GatewayOpts) {
		o.SendRate = perSecond
		o.SendBurst = burst
	}
}

// WithGatewayLogger sets the logger.
func WithGatewayLogger(l *slog.Logger) GatewayOption {
	return func(o *GatewayOpts) { o.Logger = l }
}

// Gateway sends replies through a Service, pausing first so the reply reads
// as typed by a person.
type Gateway struct {
	svc     Service
	opts    GatewayOpts
	limiter *rate.Limiter
	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGateway creates a gateway. Typing simulation is on by default.
func NewGateway(svc Service, opts ...GatewayOption) *Gateway {
	cfg := GatewayOpts{
		TypingEnabled:  true,
		CharsPerSecond: DefaultCharsPerSecond,
		MinDelay:       DefaultMinTypingDelay,
		MaxDelay:       DefaultMaxTypingDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.CharsPerSecond <= 0 {
		cfg.CharsPerSecond = DefaultCharsPerSecond
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	g := &Gateway{svc: svc, opts: cfg, sleep: sleepContext}
	if cfg.SendRate > 0 {
		if cfg.SendBurst < 1 {
			cfg.SendBurst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst)
	}
	return g
}

// TypingDelay returns the simulated typing time for body, clamped to the
// configured bounds. It is zero when simulation is disabled.
func (g *Gateway) TypingDelay(body string) time.Duration {
	if !g.opts.TypingEnabled {
		return 0
	}
	d := time.Duration(float64(len([]rune(body))) / g.opts.CharsPerSecond * float64(time.Second))
	if d < g.opts.MinDelay {
		return g.opts.MinDelay
	}
	if d > g.opts.MaxDelay {
		return g.opts.MaxDelay
	}
	return d
}

// Send delivers one message. Failures are reported in the result, never returned.
func (g *Gateway) Send(ctx context.Context, to string, msg models.OutboundMessage) models.SendResult {
	if msg.Body == "" && msg.MediaURL == "" {
		return models.SendResult{Error: models.ErrEmptyBody.Error()}
	}
	if err := g.sleep(ctx, g.TypingDelay(msg.Body)); err != nil {
		g.opts.Logger.Warn("Gateway.Send: cancelled during typing delay", "to", to, "error", err)
		return models.SendResult{Error: err.Error()}
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.opts.Logger.Warn("Gateway.Send: send rate wait aborted", "to", to, "error", err)
			return models.SendResult{Error: err.Error()}
		}
	}

	var (
		sid string
		err error
	)
	if msg.MediaURL != "" {
		sid, err = g.svc.SendMediaMessage(ctx, to, msg.Body, msg.MediaURL)
	} else {
		sid, err = g.svc.SendMessage(ctx, to, msg.Body)
	}
	if err != nil {
		g.opts.Logger.Error("Gateway.Send: delivery failed", "to", to, "error", err)
		return models.SendResult{Error: err.Error()}
	}
	g.opts.Logger.Debug("Gateway.Send: delivered", "to", to, "sid", sid)
	return models.SendResult{Success: true, MessageSID: sid}
}

// SendAll delivers msgs in order. A failed send does not stop the rest.
func (g *Gateway) SendAll(ctx context.Context, to string, msgs []models.OutboundMessage) []models.SendResult {
	results := make([]models.SendResult, 0, len(msgs))
	for _, m := range msgs {
		results = append(results, g.Send(ctx, to, m))
	}
	return results
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
