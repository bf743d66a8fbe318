package telegram

import (
	"context"
	"time"

	"freshly_bot/internal/domain/owner"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// OwnerMiddleware registers every sender as an owner before the handler runs.
// A failed upsert is logged; the update is still handled.
func OwnerMiddleware(ctx context.Context, ownerRepo owner.Repository, baseLogger *logrus.Entry) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			sender := c.Sender()
			if sender == nil || sender.IsBot {
				return next(c)
			}

			reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			o := &owner.Owner{TelegramID: sender.ID, Username: sender.Username}
			if err := ownerRepo.Upsert(reqCtx, o); err != nil {
				baseLogger.WithError(err).WithField("sender_id", sender.ID).Error("Failed to register owner")
			}
			return next(c)
		}
	}
}
