// Package util provides small helpers shared across Brenda components.
package util

import (
	"math/rand/v2"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MessageSIDPrefix mirrors the prefix of Twilio message SIDs.
const MessageSIDPrefix = "SM"

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
// Not suitable for secrets.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateMessageSID returns a Twilio-shaped message SID for transports that
// do not assign one (mocks, dry runs).
func GenerateMessageSID() string {
	return GenerateRandomID(MessageSIDPrefix, 32)
}

// NewTraceID returns a short URL-safe id used to correlate the log lines of
// one inbound message.
func NewTraceID() string {
	id, err := gonanoid.New(12)
	if err != nil {
		return GenerateRandomHex(12)
	}
	return id
}
