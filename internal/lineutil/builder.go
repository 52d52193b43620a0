// Package lineutil provides utility functions for building LINE messages.
package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// LINE API limit for a single text message.
const maxTextMessageLength = 5000

// GetSender creates a sender so replies carry a consistent display name.
func GetSender(name string) *messaging_api.Sender {
	return &messaging_api.Sender{
		Name: name,
	}
}

// NewTextMessage creates a simple text message without sender information.
// LINE API limits: max 5000 characters per text message
func NewTextMessage(text string) *messaging_api.TextMessage {
	if len(text) > maxTextMessageLength {
		text = TruncateRunes(text, maxTextMessageLength-3) + "..."
	}

	return &messaging_api.TextMessage{
		Text: text,
	}
}

// NewTextMessageWithSender creates a text message using a pre-created sender.
func NewTextMessageWithSender(text string, sender *messaging_api.Sender) *messaging_api.TextMessage {
	msg := NewTextMessage(text)
	msg.Sender = sender
	return msg
}

// TruncateRunes truncates text to at most maxBytes bytes without splitting a
// multi-byte rune.
func TruncateRunes(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	size := 0
	for _, r := range runes {
		size += len(string(r))
		if size > maxBytes {
			break
		}
		out = append(out, r)
	}
	return string(out)
}
