// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the user's private chat.
// telebot has no per-call context, so a done ctx only prevents the call.
func (tba *TelebotAdapter) SendMessage(ctx context.Context, recipientID int64, text string, options *telebot.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send to %d aborted: %w", recipientID, err)
	}
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.User{ID: recipientID}
	if _, err := tba.bot.Send(recipient, text, options); err != nil {
		return fmt.Errorf("send to %d: %w", recipientID, err)
	}
	return nil
}
