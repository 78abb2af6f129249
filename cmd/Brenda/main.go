// Command Brenda runs the WhatsApp sales assistant: the HTTP API, the
// messaging transport and the conversation processor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/BTreeMap/Brenda/internal/api"
	"github.com/BTreeMap/Brenda/internal/config"
	"github.com/BTreeMap/Brenda/internal/content"
	"github.com/BTreeMap/Brenda/internal/flow"
	"github.com/BTreeMap/Brenda/internal/genai"
	"github.com/BTreeMap/Brenda/internal/handoff"
	"github.com/BTreeMap/Brenda/internal/intent"
	"github.com/BTreeMap/Brenda/internal/lockfile"
	"github.com/BTreeMap/Brenda/internal/memory"
	"github.com/BTreeMap/Brenda/internal/messaging"
	"github.com/BTreeMap/Brenda/internal/metrics"
	"github.com/BTreeMap/Brenda/internal/store"
	"github.com/BTreeMap/Brenda/internal/twiliowhatsapp"
	"github.com/BTreeMap/Brenda/internal/whatsapp"
)

func main() {
	initializeLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
	cfg := loadEnvironmentConfig()

	flags, err := parseCommandLineFlags(flag.CommandLine, os.Args[1:], cfg)
	if err != nil {
		os.Exit(2)
	}
	flags.apply(&cfg)
	cfg.ResolveDefaults()

	logger := initializeLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flags, logger); err != nil {
		logger.Error("Brenda failed to run", "error", err)
		os.Exit(1)
	}
	logger.Info("Brenda exited successfully")
}

// Flags holds command line flag values. Unset flags keep the environment value.
type Flags struct {
	stateDir      *string
	leadStoreDSN  *string
	contentDBDSN  *string
	openaiKey     *string
	openaiModel   *string
	apiAddr       *string
	transport     *string
	campaignsFile *string
	logLevel      *string
	qrOutput      *string
	numeric       *bool
	noTyping      *bool
}

// initializeLogger installs a text slog handler at the named level as the default logger.
func initializeLogger(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadEnvironmentConfig loads .env when present and reads the environment.
func loadEnvironmentConfig() config.Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}
	cfg := config.FromEnv()
	slog.Debug("environment variables loaded",
		"BRENDA_STATE_DIR", cfg.StateDir,
		"LEAD_STORE_DSN_SET", cfg.LeadStoreDSN != "",
		"CONTENT_DB_DSN_SET", cfg.ContentDBDSN != "",
		"OPENAI_API_KEY_SET", cfg.OpenAIKey != "",
		"MESSAGING_TRANSPORT", cfg.Transport,
		"API_ADDR", cfg.APIAddr)
	return cfg
}

// parseCommandLineFlags parses args into fs with environment values as defaults.
func parseCommandLineFlags(fs *flag.FlagSet, args []string, cfg config.Config) (Flags, error) {
	flags := Flags{
		stateDir:      fs.String("state-dir", cfg.StateDir, "state directory for lock file and file-based data (overrides $BRENDA_STATE_DIR)"),
		leadStoreDSN:  fs.String("lead-store-dsn", cfg.LeadStoreDSN, "lead memory store DSN: postgres, redis, SQLite file or JSON directory (overrides $LEAD_STORE_DSN)"),
		contentDBDSN:  fs.String("content-db-dsn", cfg.ContentDBDSN, "PostgreSQL DSN for the course catalog (overrides $CONTENT_DB_DSN)"),
		openaiKey:     fs.String("openai-api-key", cfg.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel:   fs.String("openai-model", cfg.OpenAIModel, "OpenAI chat model (overrides $OPENAI_MODEL)"),
		apiAddr:       fs.String("api-addr", cfg.APIAddr, "API server address (overrides $API_ADDR)"),
		transport:     fs.String("transport", cfg.Transport, "messaging transport: twilio or whatsmeow (overrides $MESSAGING_TRANSPORT)"),
		campaignsFile: fs.String("campaigns", cfg.CampaignsFile, "YAML campaign file (overrides $CAMPAIGNS_FILE)"),
		logLevel:      fs.String("log-level", cfg.LogLevel, "debug, info, warn or error (overrides $LOG_LEVEL)"),
		qrOutput:      fs.String("qr-output", "", "path to write the whatsmeow login QR code"),
		numeric:       fs.Bool("numeric-code", false, "print the raw whatsmeow pairing code instead of a QR code"),
		noTyping:      fs.Bool("no-typing", !cfg.TypingSimulation, "send replies without the simulated typing delay"),
	}
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return flags, nil
}

func (f Flags) apply(cfg *config.Config) {
	cfg.StateDir = *f.stateDir
	cfg.LeadStoreDSN = *f.leadStoreDSN
	cfg.ContentDBDSN = *f.contentDBDSN
	cfg.OpenAIKey = *f.openaiKey
	cfg.OpenAIModel = *f.openaiModel
	cfg.APIAddr = *f.apiAddr
	cfg.Transport = *f.transport
	cfg.CampaignsFile = *f.campaignsFile
	cfg.LogLevel = *f.logLevel
	cfg.TypingSimulation = !*f.noTyping
}

// closer collects shutdown hooks run in reverse order.
type closer []func()

func (c *closer) add(fn func()) { *c = append(*c, fn) }

func (c closer) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func run(ctx context.Context, cfg config.Config, flags Flags, logger *slog.Logger) error {
	var cleanup closer
	defer cleanup.run()

	lock, err := lockfile.AcquireLock(cfg.StateDir, cfg.Transport, logger)
	if err != nil {
		return err
	}
	cleanup.add(func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release state lock", "error", err)
		}
	})

	campaigns, err := config.LoadCampaigns(cfg.CampaignsFile)
	if err != nil {
		return err
	}
	collector := metrics.NewCollector()

	leadStore, err := store.New(buildStoreOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to open lead store: %w", err)
	}
	cleanup.add(func() { leadStore.Close() })
	mem := memory.NewManager(leadStore,
		memory.WithLogger(logger),
		memory.WithSaveFailureRecorder(collector))

	catalog, err := buildCatalog(cfg, campaigns, logger, &cleanup)
	if err != nil {
		return err
	}

	msgService, err := buildMessagingService(ctx, cfg, flags, logger)
	if err != nil {
		return err
	}
	if err := msgService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	cleanup.add(func() { msgService.Stop() })
	gateway := messaging.NewGateway(msgService, buildGatewayOptions(cfg, logger)...)

	procOpts := []flow.Option{
		flow.WithGateway(gateway),
		flow.WithMetrics(collector),
		flow.WithBankDetails(campaigns.Bank),
		flow.WithLogger(logger),
	}
	if analyzer := buildAnalyzer(cfg, logger); analyzer != nil {
		procOpts = append(procOpts, flow.WithAnalyzer(analyzer))
	}
	notifier, err := buildNotifier(cfg, msgService, logger, &cleanup)
	if err != nil {
		return err
	}
	if notifier != nil {
		procOpts = append(procOpts, flow.WithNotifier(notifier))
	}
	processor := flow.NewProcessor(mem, catalog, intent.NewMatchers(campaigns.Tables()), procOpts...)

	// whatsmeow delivers inbound messages on the service channel; Twilio
	// posts them to the webhook.
	messaging.NewResponseHandler(msgService, processor, logger).Start(ctx)

	server := api.NewServer(processor, mem, buildAPIOptions(cfg, collector, logger)...)
	logger.Info("Bootstrapping Brenda", "transport", cfg.Transport, "api_addr", cfg.APIAddr,
		"llm", cfg.OpenAIKey != "", "content_db", cfg.ContentDBDSN != "")
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildStoreOptions constructs lead store options.
func buildStoreOptions(cfg config.Config, logger *slog.Logger) []store.Option {
	logger.Debug("lead store selected", "driver", store.DetectDSNType(cfg.LeadStoreDSN))
	return []store.Option{store.WithDSN(cfg.LeadStoreDSN), store.WithLogger(logger)}
}

// buildCatalog serves courses from PostgreSQL when configured, falling back
// to the campaign file catalog.
func buildCatalog(cfg config.Config, campaigns config.Campaigns, logger *slog.Logger, cleanup *closer) (content.Catalog, error) {
	static := content.NewStaticCatalog(campaigns.Courses, campaigns.Bonuses)
	if cfg.ContentDBDSN == "" {
		return static, nil
	}
	pg, err := content.NewPostgresCatalog(cfg.ContentDBDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open content database: %w", err)
	}
	cleanup.add(func() { pg.Close() })
	return content.NewResilientCatalog(pg, static, logger), nil
}

func buildMessagingService(ctx context.Context, cfg config.Config, flags Flags, logger *slog.Logger) (messaging.Service, error) {
	switch cfg.Transport {
	case config.TransportTwilio:
		client, err := twiliowhatsapp.NewClient(buildTwilioOptions(cfg, logger)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
		return messaging.NewTwilioService(client, logger), nil
	case config.TransportWhatsmeow:
		client, err := whatsapp.NewClient(ctx, buildWhatsAppOptions(cfg, flags, logger)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		return messaging.NewWhatsAppService(client, logger), nil
	}
	return nil, fmt.Errorf("unknown messaging transport %q", cfg.Transport)
}

// buildTwilioOptions constructs Twilio client options.
func buildTwilioOptions(cfg config.Config, logger *slog.Logger) []twiliowhatsapp.Option {
	return []twiliowhatsapp.Option{
		twiliowhatsapp.WithAccountSID(cfg.TwilioAccountSID),
		twiliowhatsapp.WithAuthToken(cfg.TwilioAuthToken),
		twiliowhatsapp.WithFromWhats(cfg.TwilioFrom),
		twiliowhatsapp.WithLogger(logger),
	}
}

// buildWhatsAppOptions constructs whatsmeow client options.
func buildWhatsAppOptions(cfg config.Config, flags Flags, logger *slog.Logger) []whatsapp.Option {
	waOpts := []whatsapp.Option{whatsapp.WithDBDSN(cfg.WhatsAppDBDSN), whatsapp.WithLogger(logger)}
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	return waOpts
}

func buildGatewayOptions(cfg config.Config, logger *slog.Logger) []messaging.GatewayOption {
	opts := []messaging.GatewayOption{
		messaging.WithTypingSimulation(cfg.TypingSimulation),
		messaging.WithGatewayLogger(logger),
	}
	if cfg.TypingSpeed > 0 {
		opts = append(opts, messaging.WithTypingSpeed(cfg.TypingSpeed))
	}
	if cfg.SendRate > 0 {
		opts = append(opts, messaging.WithSendRate(cfg.SendRate, 1))
	}
	return opts
}

// buildAnalyzer returns nil without an API key; the processor then uses
// the keyword classifier.
func buildAnalyzer(cfg config.Config, logger *slog.Logger) genai.Analyzer {
	if cfg.OpenAIKey == "" {
		logger.Info("OPENAI_API_KEY not set, using keyword classification only")
		return nil
	}
	genaiOpts := []genai.Option{genai.WithAPIKey(cfg.OpenAIKey), genai.WithLogger(logger)}
	if cfg.OpenAIModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(cfg.OpenAIModel))
	}
	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		logger.Warn("failed to create GenAI client, using keyword classification only", "error", err)
		return nil
	}
	return client
}

// buildNotifier combines the advisor WhatsApp message and the AMQP
// publisher. It returns nil when neither is configured.
func buildNotifier(cfg config.Config, sender handoff.MessageSender, logger *slog.Logger, cleanup *closer) (handoff.Notifier, error) {
	var notifiers handoff.MultiNotifier
	if cfg.AdvisorPhone != "" {
		notifiers = append(notifiers, handoff.NewAdvisorMessenger(sender, cfg.AdvisorPhone, logger))
	}
	if cfg.AMQPURL != "" {
		pub, err := handoff.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect hand-off broker: %w", err)
		}
		cleanup.add(func() { pub.Close() })
		notifiers = append(notifiers, pub)
	}
	switch len(notifiers) {
	case 0:
		return nil, nil
	case 1:
		return notifiers[0], nil
	}
	return notifiers, nil
}

// buildAPIOptions constructs API server options.
func buildAPIOptions(cfg config.Config, collector *metrics.Collector, logger *slog.Logger) []api.Option {
	apiOpts := []api.Option{
		api.WithAddr(cfg.APIAddr),
		api.WithLogger(logger),
		api.WithMetrics(collector),
	}
	if cfg.Transport == config.TransportTwilio && cfg.TwilioAuthToken != "" && cfg.WebhookBaseURL != "" {
		apiOpts = append(apiOpts, api.WithTwilioSignature(cfg.TwilioAuthToken, cfg.WebhookBaseURL))
	}
	if len(cfg.CORSOrigins) > 0 {
		apiOpts = append(apiOpts, api.WithCORSOrigins(cfg.CORSOrigins))
	}
	return apiOpts
}
