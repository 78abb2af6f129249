package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types/events"

	"github.com/BTreeMap/Brenda/internal/models"
	"github.com/BTreeMap/Brenda/internal/whatsapp"
)

// WhatsAppService implements Service using the whatsmeow-based client and
// forwards inbound text messages to Responses.
type WhatsAppService struct {
	client    whatsapp.Sender
	waClient  *whatsapp.Client
	responses chan models.IncomingMessage
	logger    *slog.Logger
	mu        sync.RWMutex
	stopped   bool
}

// NewWhatsAppService wraps a WhatsApp sender. Event handling is only
// available when client is a full *whatsapp.Client.
func NewWhatsAppService(client whatsapp.Sender, logger *slog.Logger) *WhatsAppService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &WhatsAppService{
		client:    client,
		responses: make(chan models.IncomingMessage, DefaultChannelBufferSize),
		logger:    logger,
	}
	if wc, ok := client.(*whatsapp.Client); ok {
		s.waClient = wc
	}
	return s
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a WhatsApp phone number.
func (s *WhatsAppService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

// Start registers the whatsmeow event handler.
func (s *WhatsAppService) Start(ctx context.Context) error {
	if s.waClient == nil || s.waClient.GetClient() == nil {
		s.logger.Debug("WhatsAppService.Start: no live client, skipping event handling")
		return nil
	}
	s.waClient.GetClient().AddEventHandler(func(evt interface{}) {
		if msg, ok := evt.(*events.Message); ok {
			s.handleIncomingMessage(msg)
		}
	})
	s.logger.Debug("WhatsAppService.Start: event handler registered")
	return nil
}

// Stop closes Responses. Later sends fail with ErrServiceStopped.
func (s *WhatsAppService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.responses)
	s.logger.Info("WhatsAppService stopped")
	return nil
}

// SendMessage sends a text message.
func (s *WhatsAppService) SendMessage(ctx context.Context, to string, body string) (string, error) {
	return s.SendMediaMessage(ctx, to, body, "")
}

// SendMediaMessage sends a message with an optional media link.
func (s *WhatsAppService) SendMediaMessage(ctx context.Context, to string, body string, mediaURL string) (string, error) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return "", ErrServiceStopped
	}
	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		return "", err
	}
	id, err := s.client.SendMediaMessage(ctx, canonicalTo, body, mediaURL)
	if err != nil {
		s.logger.Error("WhatsAppService.SendMediaMessage: send failed", "error", err, "to", canonicalTo)
		return "", err
	}
	return id, nil
}

// Responses returns inbound text messages.
func (s *WhatsAppService) Responses() <-chan models.IncomingMessage {
	return s.responses
}

func (s *WhatsAppService) handleIncomingMessage(evt *events.Message) {
	if evt.Message == nil || evt.Info.IsFromMe || evt.Info.IsGroup {
		return
	}
	var text string
	switch {
	case evt.Message.Conversation != nil:
		text = evt.Message.GetConversation()
	case evt.Message.ExtendedTextMessage != nil:
		text = evt.Message.GetExtendedTextMessage().GetText()
	default:
		s.logger.Debug("WhatsAppService ignoring non-text message", "from", evt.Info.Sender.User)
		return
	}
	s.emit(models.IncomingMessage{
		MessageSID:  string(evt.Info.ID),
		From:        evt.Info.Sender.User,
		Body:        text,
		ProfileName: evt.Info.PushName,
		ReceivedAt:  evt.Info.Timestamp,
	})
}

func (s *WhatsAppService) emit(msg models.IncomingMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		s.logger.Warn("WhatsAppService dropping inbound message (service stopped)", "from", msg.From)
		return
	}
	select {
	case s.responses <- msg:
	case <-time.After(DefaultChannelTimeout):
		s.logger.Warn("WhatsAppService responses channel blocked, dropping message", "from", msg.From)
	}
}
