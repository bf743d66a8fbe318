package app

import (
	"fmt"

	"freshly_bot/internal/domain/item"
)

// Recipe is a quick way to use up a product before it spoils.
type Recipe struct {
	Name     string
	Time     string
	Portions int
}

func (r Recipe) String() string {
	return fmt.Sprintf("🍳 Попробуй %s!\n⏱ Время: %s\n🍽 Порции: %d", r.Name, r.Time, r.Portions)
}

var recipesByCategory = map[string][]Recipe{
	"dairy": {
		{Name: "сырники", Time: "25 минут", Portions: 3},
		{Name: "панкейки на молоке", Time: "20 минут", Portions: 2},
		{Name: "домашний творожный десерт", Time: "10 минут", Portions: 2},
	},
	"meat": {
		{Name: "гуляш", Time: "1 час", Portions: 4},
		{Name: "котлеты по-домашнему", Time: "40 минут", Portions: 4},
		{Name: "жаркое в горшочках", Time: "1,5 часа", Portions: 3},
	},
	"fish": {
		{Name: "рыбу в фольге с лимоном", Time: "30 минут", Portions: 2},
		{Name: "уху", Time: "45 минут", Portions: 4},
	},
	"vegetables": {
		{Name: "овощное рагу", Time: "40 минут", Portions: 4},
		{Name: "крем-суп из овощей", Time: "35 минут", Portions: 3},
		{Name: "салат на скорую руку", Time: "10 минут", Portions: 2},
	},
	"fruits": {
		{Name: "смузи", Time: "5 минут", Portions: 2},
		{Name: "фруктовый крамбл", Time: "35 минут", Portions: 4},
	},
	"bakery": {
		{Name: "гренки с чесноком", Time: "15 минут", Portions: 2},
		{Name: "хлебный пудинг", Time: "50 минут", Portions: 4},
	},
	"eggs": {
		{Name: "омлет с овощами", Time: "15 минут", Portions: 2},
		{Name: "шакшуку", Time: "25 минут", Portions: 2},
	},
}

var fallbackRecipes = []Recipe{
	{Name: "запеканку из того, что есть в холодильнике", Time: "40 минут", Portions: 4},
	{Name: "суп-ассорти", Time: "45 минут", Portions: 4},
}

var expiredTips = []string{
	"🗑 Проверь продукт: если испортился, лучше выбросить.",
	"👃 Понюхай и осмотри продукт, прежде чем есть.",
	"📝 В следующий раз можно купить поменьше.",
}

func headline(it *item.TrackedItem, daysLeft int) string {
	switch item.StatusFor(daysLeft) {
	case item.StatusExpired:
		return fmt.Sprintf("🔴 Срок годности «%s» истёк!", it.DisplayName)
	case item.StatusToday:
		return fmt.Sprintf("🔴 Сегодня последний день для «%s»!", it.DisplayName)
	case item.StatusTomorrow:
		return fmt.Sprintf("⚠️ Твой %s испортится завтра!", it.DisplayName)
	case item.StatusSoon:
		return fmt.Sprintf("🟡 %s испортится через %d дн.", it.DisplayName, daysLeft)
	default:
		return fmt.Sprintf("🟢 Через %d дн. истекает срок «%s».", daysLeft, it.DisplayName)
	}
}
