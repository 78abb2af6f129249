// Package twiliowhatsapp wraps the Twilio REST API for WhatsApp delivery.
package twiliowhatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/BTreeMap/Brenda/internal/util"
)

// WhatsAppPrefix is the address prefix Twilio uses for WhatsApp channels.
const WhatsAppPrefix = "whatsapp:"

// Sender is the delivery surface used by the messaging service.
// Both methods return the provider message SID.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) (string, error)
	SendMediaMessage(ctx context.Context, to string, body string, mediaURL string) (string, error)
}

// messageCreator is the subset of the Twilio API service used by Client.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Opts holds configuration options for the Twilio WhatsApp client.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromWhats  string
	Logger     *slog.Logger
}

// Option defines a configuration option for the Twilio WhatsApp client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromWhats sets the sending WhatsApp number ("whatsapp:+..." or a bare number).
func WithFromWhats(from string) Option {
	return func(o *Opts) { o.FromWhats = from }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Opts) { o.Logger = l }
}

// Client wraps the Twilio REST API for WhatsApp.
type Client struct {
	api       messageCreator
	fromWhats string
	logger    *slog.Logger
}

// NewClient creates a client. Missing credentials fall back to TWILIO_ACCOUNT_SID,
// TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromWhats == "" {
		cfg.FromWhats = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Logger.Debug("Twilio client config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromWhats_set", cfg.FromWhats != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromWhats == "" {
		return nil, fmt.Errorf("fromWhats number must be provided")
	}

	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newClient(rest.Api, cfg.FromWhats, cfg.Logger), nil
}

func newClient(api messageCreator, from string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, fromWhats: whatsAppAddress(from), logger: logger}
}

func whatsAppAddress(number string) string {
	if strings.HasPrefix(number, WhatsAppPrefix) {
		return number
	}
	if !strings.HasPrefix(number, "+") {
		number = "+" + number
	}
	return WhatsAppPrefix + number
}

// SendMessage sends a WhatsApp text message and returns its SID.
func (c *Client) SendMessage(ctx context.Context, to string, body string) (string, error) {
	return c.SendMediaMessage(ctx, to, body, "")
}

// SendMediaMessage sends a WhatsApp message with an optional media attachment.
func (c *Client) SendMediaMessage(ctx context.Context, to string, body string, mediaURL string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(whatsAppAddress(to))
	params.SetFrom(c.fromWhats)
	params.SetBody(body)
	if mediaURL != "" {
		params.SetMediaUrl([]string{mediaURL})
	}

	resp, err := c.api.CreateMessage(params)
	if err != nil {
		c.logger.Error("Twilio SendMessage failed", "to", to, "error", err)
		return "", fmt.Errorf("failed to send message to %s: %w", to, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	c.logger.Debug("Twilio message sent", "to", to, "sid", sid, "media", mediaURL != "")
	return sid, nil
}

// MockClient records messages instead of sending them.
type MockClient struct {
	mu           sync.Mutex
	SentMessages []SentMessage
	// Err, when set, is returned by every send.
	Err error
}

// SentMessage is one message recorded by MockClient.
type SentMessage struct {
	To       string
	Body     string
	MediaURL string
	SID      string
}

// NewMockClient returns an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{SentMessages: []SentMessage{}}
}

func (m *MockClient) SendMessage(ctx context.Context, to string, body string) (string, error) {
	return m.SendMediaMessage(ctx, to, body, "")
}

func (m *MockClient) SendMediaMessage(ctx context.Context, to string, body string, mediaURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	sid := util.GenerateMessageSID()
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Body: body, MediaURL: mediaURL, SID: sid})
	return sid, nil
}

// Messages returns a copy of the recorded messages.
func (m *MockClient) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.SentMessages...)
}
