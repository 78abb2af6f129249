// Package messaging delivers Brenda's replies and feeds inbound messages to the processor.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/BTreeMap/Brenda/internal/models"
)

const (
	// DefaultChannelBufferSize is the buffer of the inbound message channel.
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout bounds a blocked channel send before the message is dropped.
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned by sends after Stop.
var ErrServiceStopped = errors.New("messaging service stopped")

var phoneNumberRegex = regexp.MustCompile(`\D`)

// Service is a pluggable WhatsApp transport.
type Service interface {
	// ValidateAndCanonicalizeRecipient returns the digits-only form of recipient.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a text message and returns the provider message id.
	SendMessage(ctx context.Context, to string, body string) (string, error)

	// SendMediaMessage sends a message with an attachment URL.
	SendMediaMessage(ctx context.Context, to string, body string, mediaURL string) (string, error)

	// Start begins any background processing (e.g., event subscriptions).
	Start(ctx context.Context) error

	// Stop stops background processing and closes Responses.
	Stop() error

	// Responses returns inbound messages pushed by the transport.
	Responses() <-chan models.IncomingMessage
}

// canonicalizePhone strips every non-digit and enforces a minimum length.
func canonicalizePhone(recipient string) (string, error) {
	if recipient == "" {
		return "", models.ErrEmptyRecipient
	}
	canonical := phoneNumberRegex.ReplaceAllString(models.NormalizeUserID(recipient), "")
	if canonical == "" {
		return "", fmt.Errorf("%w: no digits found in recipient %q", models.ErrInvalidPhone, recipient)
	}
	if len(canonical) < models.MinPhoneDigits {
		return "", fmt.Errorf("%w: %q is too short (minimum %d digits required)", models.ErrInvalidPhone, canonical, models.MinPhoneDigits)
	}
	return canonical, nil
}
