// Package models defines the core data structures for Brenda.
//
// It includes the lead memory record, inbound and outbound message types, course
// catalog entries and the JSON envelopes shared by the API and messaging layers.
package models

import (
	"errors"
	"strings"
	"time"
)

// Error variables for better error handling and testability
var (
	ErrEmptyUserID       = errors.New("user id cannot be empty")
	ErrEmptyRecipient    = errors.New("recipient cannot be empty")
	ErrEmptyBody         = errors.New("message body cannot be empty")
	ErrLeadNotFound      = errors.New("lead memory not found")
	ErrCourseNotFound    = errors.New("course not found")
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrNoChoicesReturned = errors.New("no choices returned from model")
)

// MinPhoneDigits is the minimum number of digits accepted as a WhatsApp address.
const MinPhoneDigits = 6

// NormalizeUserID turns a transport address ("whatsapp:+5215551234567") into the
// canonical id used as the lead memory key ("5215551234567").
func NormalizeUserID(addr string) string {
	id := strings.TrimSpace(addr)
	id = strings.TrimPrefix(id, "whatsapp:")
	id = strings.TrimPrefix(id, "+")
	return strings.TrimSpace(id)
}

// IncomingMessage is the normalized form of an inbound WhatsApp message.
type IncomingMessage struct {
	MessageSID  string    `json:"message_sid,omitempty"`
	From        string    `json:"from"`
	To          string    `json:"to,omitempty"`
	Body        string    `json:"body"`
	ProfileName string    `json:"profile_name,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
}

// UserID returns the normalized sender id.
func (m IncomingMessage) UserID() string {
	return NormalizeUserID(m.From)
}

// IncomingMessageFromFields builds an IncomingMessage from the flat field map a
// webhook delivers (From, To, Body, MessageSid, ProfileName).
func IncomingMessageFromFields(fields map[string]string, now time.Time) IncomingMessage {
	return IncomingMessage{
		MessageSID:  fields["MessageSid"],
		From:        NormalizeUserID(fields["From"]),
		To:          NormalizeUserID(fields["To"]),
		Body:        strings.TrimSpace(fields["Body"]),
		ProfileName: strings.TrimSpace(fields["ProfileName"]),
		ReceivedAt:  now,
	}
}

// OutboundMessage is a reply produced by a flow and delivered through the gateway.
type OutboundMessage struct {
	Body     string `json:"body"`
	MediaURL string `json:"media_url,omitempty"`
}

// Text is a shorthand for a body-only outbound message.
func Text(body string) OutboundMessage {
	return OutboundMessage{Body: body}
}

// SendResult reports the outcome of one outbound send.
type SendResult struct {
	Success    bool   `json:"success"`
	MessageSID string `json:"message_sid,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ProcessResult is the structured outcome of processing one inbound message.
type ProcessResult struct {
	Success   bool         `json:"success"`
	UserID    string       `json:"user_id"`
	Route     string       `json:"route"`
	Responses []string     `json:"responses,omitempty"`
	Sends     []SendResult `json:"sends,omitempty"`
	Saved     bool         `json:"saved"`
	Error     string       `json:"error,omitempty"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
