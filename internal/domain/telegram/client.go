package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

// Client is the messaging collaborator used for reminders and broadcasts.
// The core never depends on the concrete bot library beyond SendOptions.
type Client interface {
	// SendMessage delivers text to a user's private chat. A non-nil error means
	// the message was not delivered (blocked bot, unknown chat, timeout).
	SendMessage(ctx context.Context, recipientID int64, text string, options *telebot.SendOptions) error
}
