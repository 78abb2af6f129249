// Package api exposes Brenda over HTTP: the Twilio webhook, a JSON message
// endpoint for other channels, lead inspection, health and metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/twilio/twilio-go/client"

	"github.com/BTreeMap/Brenda/internal/metrics"
	"github.com/BTreeMap/Brenda/internal/models"
)

const (
	// DefaultAddr is used when no listen address is configured.
	DefaultAddr = ":8080"
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
	// TwilioSignatureHeader carries the webhook signature.
	TwilioSignatureHeader = "X-Twilio-Signature"
)

// MessageProcessor handles one inbound message.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, msg models.IncomingMessage) models.ProcessResult
}

// LeadReader reads lead memory. *memory.Manager implements it.
type LeadReader interface {
	Get(ctx context.Context, userID string) (*models.LeadMemory, error)
	Ping(ctx context.Context) error
}

// Opts holds configuration for the API server.
type Opts struct {
	Addr            string
	Logger          *slog.Logger
	Metrics         *metrics.Collector
	TwilioAuthToken string
	WebhookBaseURL  string
	CORSOrigins     []string
	Now             func() time.Time
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Opts) { o.Logger = l }
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Opts) { o.Metrics = c }
}

// WithTwilioSignature enables X-Twilio-Signature validation. baseURL is the
// public URL Twilio is configured to call, without the path.
func WithTwilioSignature(authToken, baseURL string) Option {
	return func(o *Opts) {
		o.TwilioAuthToken = authToken
		o.WebhookBaseURL = baseURL
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(o *Opts) { o.CORSOrigins = origins }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Now = now }
}

// Server is Brenda's HTTP API.
type Server struct {
	processor MessageProcessor
	leads     LeadReader
	opts      Opts
	logger    *slog.Logger
	router    chi.Router
	// validSignature is nil when signature validation is disabled.
	validSignature func(url string, params map[string]string, signature string) bool
}

// NewServer builds the router.
func NewServer(processor MessageProcessor, leads LeadReader, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr, Now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{processor: processor, leads: leads, opts: cfg, logger: cfg.Logger}
	if cfg.TwilioAuthToken != "" {
		rv := client.NewRequestValidator(cfg.TwilioAuthToken)
		s.validSignature = func(url string, params map[string]string, signature string) bool {
			return rv.Validate(url, params, signature)
		}
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.healthHandler)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}
	r.Post("/webhook/twilio", s.twilioWebhookHandler)
	r.Post("/messages", s.messagesHandler)
	r.Get("/leads/{userID}", s.getLeadHandler)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server.Run: API listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Server.Run: shutting down API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown failed: %w", err)
	}
	return nil
}

// observe logs each request and records it by route pattern, so user ids in
// paths do not explode metric cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.opts.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := s.opts.Now().Sub(start)
		s.opts.Metrics.ObserveHTTP(r.Method, pattern, status, elapsed)
		s.logger.Debug("Server.observe: request served",
			"method", r.Method, "route", pattern, "status", status,
			"duration", elapsed, "requestID", middleware.GetReqID(r.Context()))
	})
}
