package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"freshly_bot/internal/app"
	"freshly_bot/internal/domain/catalog"
	idb "freshly_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const requestTimeout = 10 * time.Second

// addErrorMessage picks the reply for a rejected add.
func addErrorMessage(err error, name string) string {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return fmt.Sprintf("🤷 Не знаю продукт «%s». Добавь его со своим сроком: /add_custom <дней> %s", name, name)
	case errors.Is(err, app.ErrInvalidDate):
		return "❗ Дата покупки не может быть в будущем."
	case errors.Is(err, app.ErrInvalidShelfLife):
		return "❗ Срок годности должен быть больше нуля дней."
	case errors.Is(err, app.ErrEmptyName):
		return "❗ Укажи название продукта."
	case errors.Is(err, app.ErrQuotaExceeded):
		return "📦 Достигнут лимит продуктов. Удали съеденные (/eaten) или очисти список (/clear)."
	default:
		return "Произошла ошибка при добавлении продукта. Пожалуйста, попробуйте позже."
	}
}

// RegisterItemHandlers registers the item tracking commands.
func RegisterItemHandlers(ctx context.Context, b *telebot.Bot, tracking *app.TrackingService, baseLogger *logrus.Entry) {
	b.Handle("/add", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/add",
			"sender_id": c.Sender().ID,
		})

		name, purchase, err := parseAddArgs(c.Args(), tracking.Today())
		if err != nil {
			return c.Send("❗ Используй: /add <продукт> [дата покупки]")
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		it, err := tracking.AddFromCatalog(reqCtx, c.Sender().ID, name, purchase)
		if err != nil {
			handlerLogger.WithError(err).Warn("Add rejected")
			return c.Send(addErrorMessage(err, name))
		}
		return c.Send(formatAdded(it, tracking.Today()))
	})

	b.Handle("/add_custom", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/add_custom",
			"sender_id": c.Sender().ID,
		})

		name, days, purchase, err := parseAddCustomArgs(c.Args(), tracking.Today())
		if err != nil {
			return c.Send("❗ Используй: /add_custom <дней> <название> [дата покупки]")
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		it, err := tracking.Add(reqCtx, c.Sender().ID, name, purchase, days)
		if err != nil {
			handlerLogger.WithError(err).Warn("Add rejected")
			return c.Send(addErrorMessage(err, name))
		}
		return c.Send(formatAdded(it, tracking.Today()))
	})

	b.Handle("/list", func(c telebot.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		items, err := tracking.ListByOwner(reqCtx, c.Sender().ID)
		if err != nil {
			baseLogger.WithError(err).WithField("sender_id", c.Sender().ID).Error("Failed to list items")
			return c.Send("Не удалось получить список продуктов. Пожалуйста, попробуйте позже.")
		}
		return c.Send(FormatItemList(items, tracking.Today()))
	})

	b.Handle("/eaten", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/eaten",
			"sender_id": c.Sender().ID,
		})

		args := c.Args()
		if len(args) != 1 {
			return c.Send("❗ Используй: /eaten <номер из /list>")
		}
		position, err := strconv.Atoi(args[0])
		if err != nil {
			return c.Send("❗ Номер должен быть числом.")
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		items, err := tracking.ListByOwner(reqCtx, c.Sender().ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list items")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}
		if position < 1 || position > len(items) {
			return c.Send("❗ Неверный номер.")
		}

		target := items[position-1]
		if err := tracking.Remove(reqCtx, c.Sender().ID, target.ID); err != nil {
			if errors.Is(err, idb.ErrItemNotFound) {
				return c.Send("❗ Этот продукт уже удалён.")
			}
			handlerLogger.WithError(err).Error("Failed to remove item")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}
		return c.Send(fmt.Sprintf("😋 %s — отмечено как съеденное!", target.DisplayName))
	})

	b.Handle("/clear", func(c telebot.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		removed, err := tracking.RemoveAll(reqCtx, c.Sender().ID)
		if err != nil {
			baseLogger.WithError(err).WithField("sender_id", c.Sender().ID).Error("Failed to clear items")
			return c.Send("Не удалось очистить список. Пожалуйста, попробуйте позже.")
		}
		if removed == 0 {
			return c.Send("📭 Список и так пуст.")
		}
		return c.Send(fmt.Sprintf("🧹 Удалено продуктов: %d.", removed))
	})

	b.Handle("/export", func(c telebot.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		var buf bytes.Buffer
		n, err := tracking.ExportCSV(reqCtx, c.Sender().ID, &buf)
		if err != nil {
			baseLogger.WithError(err).WithField("sender_id", c.Sender().ID).Error("Failed to export items")
			return c.Send("Не удалось выгрузить продукты. Пожалуйста, попробуйте позже.")
		}
		if n == 0 {
			return c.Send("📭 Нет продуктов для выгрузки.")
		}
		doc := &telebot.Document{
			File:     telebot.FromReader(&buf),
			FileName: "freshly_" + tracking.Today().Format("2006-01-02") + ".csv",
			Caption:  fmt.Sprintf("📄 Продуктов: %d", n),
		}
		return c.Send(doc)
	})
}
