package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"freshly_bot/internal/domain/item"
)

var errInvalidDateFormat = fmt.Errorf("unrecognized date")

// ParseDate reads a purchase date typed by a user. Accepted forms are
// 2006-01-02, 02.01.2006, 02.01 and the words "сегодня" / "вчера".
// A day-month form that would land after today refers to the previous year.
func ParseDate(raw string, today time.Time) (time.Time, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	today = item.DateOf(today)

	switch raw {
	case "сегодня":
		return today, nil
	case "вчера":
		return today.AddDate(0, 0, -1), nil
	}

	for _, layout := range []string{"2006-01-02", "02.01.2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse("02.01", raw); err == nil {
		d := time.Date(today.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if d.After(today) {
			d = d.AddDate(-1, 0, 0)
		}
		return d, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", errInvalidDateFormat, raw)
}

// splitNameAndDate treats the last argument as a date when it parses as one.
func splitNameAndDate(args []string, today time.Time) (string, time.Time) {
	if len(args) > 1 {
		if d, err := ParseDate(args[len(args)-1], today); err == nil {
			return strings.Join(args[:len(args)-1], " "), d
		}
	}
	return strings.Join(args, " "), item.DateOf(today)
}

// parseAddArgs handles "/add <product> [date]".
func parseAddArgs(args []string, today time.Time) (name string, purchase time.Time, err error) {
	if len(args) == 0 {
		return "", time.Time{}, fmt.Errorf("missing product name")
	}
	name, purchase = splitNameAndDate(args, today)
	return name, purchase, nil
}

// parseAddCustomArgs handles "/add_custom <days> <name> [date]".
func parseAddCustomArgs(args []string, today time.Time) (name string, days int, purchase time.Time, err error) {
	if len(args) < 2 {
		return "", 0, time.Time{}, fmt.Errorf("expected shelf life and name")
	}
	days, err = strconv.Atoi(args[0])
	if err != nil {
		return "", 0, time.Time{}, fmt.Errorf("shelf life must be a number: %w", err)
	}
	name, purchase = splitNameAndDate(args[1:], today)
	return name, days, purchase, nil
}

// FormatItemList renders the /list reply.
func FormatItemList(items []*item.TrackedItem, today time.Time) string {
	if len(items) == 0 {
		return "📭 Нет активных продуктов."
	}
	var b strings.Builder
	b.WriteString("📋 Твои продукты:\n")
	for i, it := range items {
		daysLeft := it.DaysLeft(today)
		status := item.StatusFor(daysLeft)
		fmt.Fprintf(&b, "%d. %s %s — до %s, %s\n",
			i+1, status.Marker(), it.DisplayName, it.ExpirationDate.Format("02.01.2006"), status.Label(daysLeft))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAdded(it *item.TrackedItem, today time.Time) string {
	daysLeft := it.DaysLeft(today)
	return fmt.Sprintf("✅ Добавлено: %s — годен до %s (%s). Напомню заранее!",
		it.DisplayName, it.ExpirationDate.Format("02.01.2006"), item.StatusFor(daysLeft).Label(daysLeft))
}
