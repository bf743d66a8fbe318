package item

import "fmt"

// Status is the presentational band derived from days left. It is not enforced anywhere.
type Status string

const (
	StatusExpired  Status = "expired"
	StatusToday    Status = "today"
	StatusTomorrow Status = "tomorrow"
	StatusSoon     Status = "soon" // 2-3 days
	StatusSafe     Status = "safe"
)

// StatusFor maps days left to a band.
func StatusFor(daysLeft int) Status {
	switch {
	case daysLeft < 0:
		return StatusExpired
	case daysLeft == 0:
		return StatusToday
	case daysLeft == 1:
		return StatusTomorrow
	case daysLeft <= 3:
		return StatusSoon
	default:
		return StatusSafe
	}
}

var statusMarkers = map[Status]string{
	StatusExpired:  "🔴",
	StatusToday:    "🔴",
	StatusTomorrow: "🟠",
	StatusSoon:     "🟡",
	StatusSafe:     "🟢",
}

// Marker returns the colored circle shown next to an item in lists.
func (s Status) Marker() string {
	return statusMarkers[s]
}

// Label renders the band for a user, e.g. "истекает завтра" or "ещё 5 дн.".
func (s Status) Label(daysLeft int) string {
	switch s {
	case StatusExpired:
		return "просрочен"
	case StatusToday:
		return "истекает сегодня"
	case StatusTomorrow:
		return "истекает завтра"
	case StatusSoon:
		return fmt.Sprintf("скоро истекает (%d дн.)", daysLeft)
	default:
		return fmt.Sprintf("ещё %d дн.", daysLeft)
	}
}
