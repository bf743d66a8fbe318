package telegram

import (
	"testing"
	"time"

	"freshly_bot/internal/domain/item"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	today := time.Date(2024, 1, 5, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{raw: "2024-01-03", want: utcDay(2024, 1, 3)},
		{raw: "03.01.2024", want: utcDay(2024, 1, 3)},
		{raw: "03.01", want: utcDay(2024, 1, 3)},
		{raw: "30.12", want: utcDay(2023, 12, 30)},
		{raw: "Сегодня", want: utcDay(2024, 1, 5)},
		{raw: "вчера", want: utcDay(2024, 1, 4)},
		{raw: "завтра", wantErr: true},
		{raw: "32.01", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDate(tt.raw, today)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAddArgs(t *testing.T) {
	today := utcDay(2024, 1, 5)

	name, purchase, err := parseAddArgs([]string{"сметана", "20%", "вчера"}, today)
	require.NoError(t, err)
	assert.Equal(t, "сметана 20%", name)
	assert.Equal(t, utcDay(2024, 1, 4), purchase)

	name, purchase, err = parseAddArgs([]string{"молоко"}, today)
	require.NoError(t, err)
	assert.Equal(t, "молоко", name)
	assert.Equal(t, today, purchase)

	_, _, err = parseAddArgs(nil, today)
	assert.Error(t, err)
}

func TestParseAddCustomArgs(t *testing.T) {
	today := utcDay(2024, 1, 5)

	name, days, purchase, err := parseAddCustomArgs([]string{"4", "домашний", "соус", "2024-01-02"}, today)
	require.NoError(t, err)
	assert.Equal(t, "домашний соус", name)
	assert.Equal(t, 4, days)
	assert.Equal(t, utcDay(2024, 1, 2), purchase)

	_, _, _, err = parseAddCustomArgs([]string{"много", "соус"}, today)
	assert.Error(t, err)
	_, _, _, err = parseAddCustomArgs([]string{"4"}, today)
	assert.Error(t, err)
}

func TestFormatItemList(t *testing.T) {
	today := utcDay(2024, 1, 7)
	assert.Equal(t, "📭 Нет активных продуктов.", FormatItemList(nil, today))

	items := []*item.TrackedItem{
		{DisplayName: "кефир", ExpirationDate: utcDay(2024, 1, 6)},
		{DisplayName: "молоко", ExpirationDate: utcDay(2024, 1, 8)},
		{DisplayName: "сыр", ExpirationDate: utcDay(2024, 1, 20)},
	}
	want := "📋 Твои продукты:\n" +
		"1. 🔴 кефир — до 06.01.2024, просрочен\n" +
		"2. 🟠 молоко — до 08.01.2024, истекает завтра\n" +
		"3. 🟢 сыр — до 20.01.2024, ещё 13 дн."
	assert.Equal(t, want, FormatItemList(items, today))
}
