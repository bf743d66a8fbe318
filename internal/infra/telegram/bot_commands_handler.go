// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"freshly_bot/internal/domain/catalog"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const catalogPreviewSize = 15

func RegisterBotCommands(
	b *telebot.Bot,
	adminTelegramID int64,
	cat *catalog.Catalog,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /start command")

		return c.Send(fmt.Sprintf("🍏 Привет, %s! Я — Freshly.\n"+
			"Я слежу за сроками годности продуктов и напомню, пока их ещё можно съесть.\n\n"+
			"✍️ /add молоко — добавить продукт из справочника\n"+
			"📋 /list — покажу активные продукты\n"+
			"ℹ️ /help — все команды", c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		var helpText strings.Builder
		helpText.WriteString("Доступные команды:\n\n")
		helpText.WriteString("/add <продукт> [дата покупки] — добавить продукт из справочника\n")
		helpText.WriteString("/add_custom <дней> <название> [дата покупки] — добавить продукт со своим сроком\n")
		helpText.WriteString("/list — список продуктов\n")
		helpText.WriteString("/eaten <номер> — отметить продукт из списка как съеденный\n")
		helpText.WriteString("/clear — удалить все продукты\n")
		helpText.WriteString("/export — выгрузить продукты в CSV\n\n")
		helpText.WriteString("Дата: 2024-01-31, 31.01.2024, 31.01, «сегодня» или «вчера». Без даты считаю, что куплено сегодня.\n")

		if names := cat.Names(); len(names) > 0 {
			preview := names
			if len(preview) > catalogPreviewSize {
				preview = preview[:catalogPreviewSize]
			}
			fmt.Fprintf(&helpText, "\nВ справочнике %d продуктов, например: %s.\n", len(names), strings.Join(preview, ", "))
		}

		if adminTelegramID != 0 && senderID == adminTelegramID {
			logCtx.Info("User identified as Admin, adding admin help.")
			helpText.WriteString("\nКоманды администратора:\n")
			helpText.WriteString("/premium <TelegramID> <дней> — выдать премиум\n")
			helpText.WriteString("/unpremium <TelegramID> — отключить премиум\n")
			helpText.WriteString("/broadcast <текст> — рассылка всем пользователям\n")
		}
		return c.Send(helpText.String())
	})
}
