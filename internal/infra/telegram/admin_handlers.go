package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"freshly_bot/internal/app"
	idb "freshly_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unauthorizedReply = "Ошибка: У вас нет прав для выполнения этой команды."

// RegisterAdminHandlers registers handlers for admin commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, baseLogger *logrus.Entry) {
	b.Handle("/premium", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/premium",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		args := c.Args()
		// Expected format: /premium <TelegramID> <days>
		if len(args) != 2 {
			return c.Send("Неверный формат команды. Используйте: /premium <TelegramID> <дней>")
		}
		ownerID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Ошибка: Telegram ID должен быть числом.")
		}
		days, err := strconv.Atoi(args[1])
		if err != nil {
			return c.Send("Ошибка: количество дней должно быть числом.")
		}
		handlerLogger = handlerLogger.WithFields(logrus.Fields{"owner_id": ownerID, "days": days})

		until, err := adminService.GrantPremium(ctx, c.Sender().ID, ownerID, days)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Admin not authorized (service level)")
				return c.Send(unauthorizedReply)
			case errors.Is(err, app.ErrInvalidPremiumDuration):
				return c.Send("Ошибка: количество дней должно быть больше нуля.")
			case errors.Is(err, idb.ErrOwnerNotFound):
				logWithError.Warn("Owner not found")
				return c.Send(fmt.Sprintf("Пользователь с Telegram ID %d ещё не писал боту.", ownerID))
			default:
				logWithError.Error("Failed to grant premium")
				return c.Send(fmt.Sprintf("Произошла ошибка при выдаче премиума: %s", err.Error()))
			}
		}

		handlerLogger.Info("Premium granted successfully")
		return c.Send(fmt.Sprintf("Премиум для %d активен до %s.", ownerID, until.Format("02.01.2006 15:04")))
	})

	b.Handle("/unpremium", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/unpremium",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Неверный формат команды. Используйте: /unpremium <TelegramID>")
		}
		ownerID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Ошибка: Telegram ID должен быть числом.")
		}

		if err := adminService.RevokePremium(ctx, c.Sender().ID, ownerID); err != nil {
			logWithError := handlerLogger.WithError(err).WithField("owner_id", ownerID)
			if errors.Is(err, idb.ErrOwnerNotFound) {
				logWithError.Warn("Owner not found")
				return c.Send(fmt.Sprintf("Пользователь с Telegram ID %d не найден.", ownerID))
			}
			logWithError.Error("Failed to revoke premium")
			return c.Send(fmt.Sprintf("Произошла ошибка при отключении премиума: %s", err.Error()))
		}
		return c.Send(fmt.Sprintf("Премиум для %d отключён.", ownerID))
	})

	b.Handle("/broadcast", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/broadcast",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		text := strings.TrimSpace(c.Message().Payload)
		sent, failed, err := adminService.Broadcast(ctx, c.Sender().ID, text)
		if err != nil {
			if errors.Is(err, app.ErrEmptyBroadcast) {
				return c.Send("Неверный формат команды. Используйте: /broadcast <текст>")
			}
			handlerLogger.WithError(err).Error("Broadcast failed")
			return c.Send(fmt.Sprintf("Произошла ошибка при рассылке: %s", err.Error()))
		}
		return c.Send(fmt.Sprintf("Рассылка завершена: доставлено %d, не доставлено %d.", sent, failed))
	})
}
