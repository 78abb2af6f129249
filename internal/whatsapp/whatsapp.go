// Package whatsapp wraps the whatsmeow client for WhatsApp Web delivery.
//
// It handles session storage, QR login and text sends.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/BTreeMap/Brenda/internal/store"
	"github.com/BTreeMap/Brenda/internal/util"
)

const (
	// DefaultSQLitePath is the default whatsmeow session database.
	DefaultSQLitePath = "/var/lib/brenda/whatsmeow.db"
	// JIDSuffix is the WhatsApp JID suffix for regular users.
	JIDSuffix = "s.whatsapp.net"
)

// Sender sends WhatsApp messages and returns the message id.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) (string, error)
	SendMediaMessage(ctx context.Context, to string, body string, mediaURL string) (string, error)
}

// Opts holds configuration options for the WhatsApp client.
type Opts struct {
	DBDSN       string // whatsmeow session database
	QRPath      string // path to write login QR code
	NumericCode bool   // print the raw pairing code instead of a QR
	Logger      *slog.Logger
}

// Option defines a configuration option for the WhatsApp client.
type Option func(*Opts)

// WithDBDSN sets the whatsmeow session database connection string.
func WithDBDSN(dsn string) Option {
	return func(o *Opts) {
		o.DBDSN = dsn
	}
}

// WithQRCodeOutput writes the login QR code to path instead of stdout.
func WithQRCodeOutput(path string) Option {
	return func(o *Opts) {
		o.QRPath = path
	}
}

// WithNumericCode prints the login code as text.
func WithNumericCode() Option {
	return func(o *Opts) {
		o.NumericCode = true
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Opts) {
		o.Logger = l
	}
}

// Client wraps the whatsmeow client.
type Client struct {
	waClient *whatsmeow.Client
	logger   *slog.Logger
}

// sessionDriver picks the whatsmeow sql dialect for dsn and reports whether
// a SQLite DSN lacks the foreign key pragma whatsmeow relies on.
func sessionDriver(dsn string) (driver string, missingForeignKeys bool) {
	if store.DetectDSNType(dsn) == store.DriverPostgres {
		return "postgres", false
	}
	return "sqlite3", !strings.Contains(dsn, "foreign_keys")
}

// NewClient opens the session store and connects, running the QR login flow
// when no device is paired yet.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger

	dbDSN := cfg.DBDSN
	if dbDSN == "" {
		dbDSN = DefaultSQLitePath
		logger.Debug("WhatsApp NewClient: no session DSN, using default", "path", dbDSN)
	}
	driver, missingFK := sessionDriver(dbDSN)
	if missingFK {
		logger.Warn("WhatsApp NewClient: SQLite session DSN without foreign keys; add '?_foreign_keys=on'",
			"dsn_example", "file:"+dbDSN+"?_foreign_keys=on")
	}

	container, err := sqlstore.New(ctx, driver, dbDSN, waLog.Stdout("Database", "INFO", true))
	if err != nil {
		logger.Error("WhatsApp NewClient: failed to open session store", "error", err)
		return nil, fmt.Errorf("failed to initialize WhatsApp database store: %w", err)
	}
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device from WhatsApp store: %w", err)
	}

	waClient := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "INFO", true))
	if waClient.Store.ID == nil {
		if err := login(ctx, waClient, cfg); err != nil {
			return nil, err
		}
	} else if err := waClient.Connect(); err != nil {
		logger.Error("WhatsApp NewClient: failed to connect", "error", err)
		return nil, fmt.Errorf("failed to connect to WhatsApp server: %w", err)
	}
	logger.Info("WhatsApp client connected")
	return &Client{waClient: waClient, logger: logger}, nil
}

func login(ctx context.Context, waClient *whatsmeow.Client, cfg Opts) error {
	cfg.Logger.Info("WhatsApp login required; starting QR code flow")
	qrChan, _ := waClient.GetQRChannel(ctx)
	if err := waClient.Connect(); err != nil {
		return fmt.Errorf("failed to connect to WhatsApp during login: %w", err)
	}
	writer := io.Writer(os.Stdout)
	if cfg.QRPath != "" {
		f, err := os.Create(cfg.QRPath)
		if err != nil {
			return fmt.Errorf("failed to create QR file: %w", err)
		}
		defer f.Close()
		writer = f
	}
	for evt := range qrChan {
		if evt.Event != "code" {
			cfg.Logger.Info("WhatsApp login event", "event", evt.Event)
			continue
		}
		if cfg.NumericCode {
			fmt.Fprintln(writer, evt.Code)
		} else {
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, writer)
		}
	}
	return nil
}

// SendMessage sends a text message and returns its id.
func (c *Client) SendMessage(ctx context.Context, to string, body string) (string, error) {
	if c.waClient == nil || c.waClient.Store == nil {
		return "", fmt.Errorf("whatsapp client not initialized")
	}
	if to == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	if body == "" {
		return "", fmt.Errorf("message body cannot be empty")
	}

	jid := types.NewJID(to, JIDSuffix)
	resp, err := c.waClient.SendMessage(ctx, jid, &waE2E.Message{Conversation: &body})
	if err != nil {
		c.logger.Error("WhatsApp SendMessage failed", "error", err, "to", to)
		return "", fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	c.logger.Debug("WhatsApp message sent", "to", to, "id", resp.ID)
	return string(resp.ID), nil
}

// SendMediaMessage sends body followed by the media link. Links preview in
// WhatsApp, which avoids uploading the resource through the session.
func (c *Client) SendMediaMessage(ctx context.Context, to string, body string, mediaURL string) (string, error) {
	return c.SendMessage(ctx, to, withMediaLink(body, mediaURL))
}

func withMediaLink(body, mediaURL string) string {
	if mediaURL == "" {
		return body
	}
	if body == "" {
		return mediaURL
	}
	return body + "\n\n" + mediaURL
}

// GetClient returns the underlying whatsmeow client for event handling.
func (c *Client) GetClient() *whatsmeow.Client {
	return c.waClient
}

// MockClient records messages instead of sending them.
type MockClient struct {
	mu   sync.Mutex
	Sent []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendMessage(ctx context.Context, to string, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, to+": "+body)
	return util.GenerateRandomHex(16), nil
}

func (m *MockClient) SendMediaMessage(ctx context.Context, to string, body string, mediaURL string) (string, error) {
	return m.SendMessage(ctx, to, withMediaLink(body, mediaURL))
}
