package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BTreeMap/Brenda/internal/util"
)

// Transports selectable through MESSAGING_TRANSPORT.
const (
	TransportTwilio    = "twilio"
	TransportWhatsmeow = "whatsmeow"
)

const (
	// DefaultStateDir holds the lock file and file-based state.
	DefaultStateDir = "/var/lib/brenda"
	// DefaultAPIAddr is the HTTP listen address.
	DefaultAPIAddr = ":8080"
	// DefaultLeadsDirName is the JSON lead store directory under the state dir.
	DefaultLeadsDirName = "leads"
	// DefaultWhatsAppDBFileName is the whatsmeow session database under the state dir.
	DefaultWhatsAppDBFileName = "whatsmeow.db"
)

// Config holds the environment-derived settings. Command-line flags in main
// override these values.
type Config struct {
	StateDir         string
	LeadStoreDSN     string
	ContentDBDSN     string
	OpenAIKey        string
	OpenAIModel      string
	APIAddr          string
	Transport        string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	WhatsAppDBDSN    string
	AdvisorPhone     string
	AMQPURL          string
	CampaignsFile    string
	TypingSimulation bool
	TypingSpeed      float64
	// SendRate caps outbound messages per second; zero disables the limit.
	SendRate float64
	// WebhookBaseURL is the public base URL Twilio signs webhook requests with.
	WebhookBaseURL string
	CORSOrigins    []string
	LogLevel       string
}

// FromEnv reads every setting from the environment, applying defaults.
// Values loaded by godotenv are visible here.
func FromEnv() Config {
	c := Config{
		StateDir:         getenvDefault("BRENDA_STATE_DIR", DefaultStateDir),
		LeadStoreDSN:     os.Getenv("LEAD_STORE_DSN"),
		ContentDBDSN:     os.Getenv("CONTENT_DB_DSN"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      os.Getenv("OPENAI_MODEL"),
		APIAddr:          getenvDefault("API_ADDR", DefaultAPIAddr),
		Transport:        getenvDefault("MESSAGING_TRANSPORT", TransportTwilio),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_FROM_NUMBER"),
		WhatsAppDBDSN:    os.Getenv("WHATSAPP_DB_DSN"),
		AdvisorPhone:     os.Getenv("ADVISOR_PHONE"),
		AMQPURL:          os.Getenv("AMQP_URL"),
		CampaignsFile:    os.Getenv("CAMPAIGNS_FILE"),
		TypingSimulation: util.ParseBoolEnv("TYPING_SIMULATION", true),
		TypingSpeed:      util.ParseFloatEnv("TYPING_CHARS_PER_SECOND", 0),
		SendRate:         util.ParseFloatEnv("SEND_RATE_PER_SECOND", 0),
		WebhookBaseURL:   strings.TrimRight(os.Getenv("WEBHOOK_BASE_URL"), "/"),
		CORSOrigins:      splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		LogLevel:         getenvDefault("LOG_LEVEL", "info"),
	}
	return c
}

// ResolveDefaults fills DSNs derived from the state directory. Call after
// flags have been applied.
func (c *Config) ResolveDefaults() {
	if c.LeadStoreDSN == "" {
		c.LeadStoreDSN = "dir:" + filepath.Join(c.StateDir, DefaultLeadsDirName)
	}
	if c.WhatsAppDBDSN == "" {
		c.WhatsAppDBDSN = "file:" + filepath.Join(c.StateDir, DefaultWhatsAppDBFileName) + "?_foreign_keys=on"
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
