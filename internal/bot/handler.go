// Package bot provides the handler interface and registry for LINE bot
// modules. Each module implements the Handler interface to process user
// messages.
package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Handler defines the interface that all bot modules must implement
type Handler interface {
	// Name returns the module name for logging and lookup
	Name() string

	// CanHandle checks if this handler can process the given text message
	CanHandle(text string) bool

	// HandleMessage processes a text message and returns LINE message responses
	// Returns a slice of LINE messages (max 5 messages per reply)
	HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface
}
