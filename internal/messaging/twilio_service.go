package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BTreeMap/Brenda/internal/models"
	"github.com/BTreeMap/Brenda/internal/twiliowhatsapp"
)

// TwilioService implements Service on top of the Twilio REST API. Inbound
// messages arrive through the HTTP webhook, so Responses stays idle.
type TwilioService struct {
	client    twiliowhatsapp.Sender
	responses chan models.IncomingMessage
	logger    *slog.Logger
	mu        sync.RWMutex
	stopped   bool
}

// NewTwilioService wraps a Twilio sender (real client or MockClient).
func NewTwilioService(client twiliowhatsapp.Sender, logger *slog.Logger) *TwilioService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TwilioService{
		client:    client,
		responses: make(chan models.IncomingMessage, DefaultChannelBufferSize),
		logger:    logger,
	}
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a WhatsApp phone number.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	canonical, err := canonicalizePhone(recipient)
	if err != nil {
		return "", err
	}
	if canonical != recipient {
		s.logger.Debug("TwilioService canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// Start is a no-op for Twilio.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop marks the service stopped and closes Responses.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.responses)
	return nil
}

// SendMessage sends a text message via Twilio.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) (string, error) {
	return s.SendMediaMessage(ctx, to, body, "")
}

// SendMediaMessage sends a message with an optional media URL via Twilio.
func (s *TwilioService) SendMediaMessage(ctx context.Context, to string, body string, mediaURL string) (string, error) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return "", ErrServiceStopped
	}

	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		s.logger.Error("TwilioService.SendMediaMessage: invalid recipient", "error", err, "to", to)
		return "", err
	}
	if mediaURL == "" {
		return s.client.SendMessage(ctx, canonicalTo, body)
	}
	return s.client.SendMediaMessage(ctx, canonicalTo, body, mediaURL)
}

// Responses returns the inbound channel; unused for Twilio.
func (s *TwilioService) Responses() <-chan models.IncomingMessage {
	return s.responses
}
