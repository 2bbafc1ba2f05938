package history

import (
	"strings"
	"time"
)

// DayLabel names a day of the week, or the holiday category
type DayLabel string

const (
	Sunday    DayLabel = "Sun"
	Monday    DayLabel = "Mon"
	Tuesday   DayLabel = "Tue"
	Wednesday DayLabel = "Wed"
	Thursday  DayLabel = "Thu"
	Friday    DayLabel = "Fri"
	Saturday  DayLabel = "Sat"
	Holiday   DayLabel = "Holiday"
)

// DayType is the binary timetable classification
type DayType string

const (
	Weekday DayType = "weekday"
	Weekend DayType = "weekend"
)

// DateLayout is the ISO date format used for record keys and holiday lists
const DateLayout = "2006-01-02"

var weekdayLabels = [...]DayLabel{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var labelAliases = map[string]DayLabel{
	"sun": Sunday, "sunday": Sunday, "일": Sunday, "일요일": Sunday,
	"mon": Monday, "monday": Monday, "월": Monday, "월요일": Monday,
	"tue": Tuesday, "tuesday": Tuesday, "화": Tuesday, "화요일": Tuesday,
	"wed": Wednesday, "wednesday": Wednesday, "수": Wednesday, "수요일": Wednesday,
	"thu": Thursday, "thursday": Thursday, "목": Thursday, "목요일": Thursday,
	"fri": Friday, "friday": Friday, "금": Friday, "금요일": Friday,
	"sat": Saturday, "saturday": Saturday, "토": Saturday, "토요일": Saturday,
	"holiday": Holiday, "공휴일": Holiday,
}

var dayTypeAliases = map[string]DayType{
	"weekday": Weekday, "workday": Weekday, "평일": Weekday,
	"weekend": Weekend, "holiday": Weekend, "토일": Weekend, "주말": Weekend, "토요일": Weekend, "휴일": Weekend, "공휴일": Weekend,
}

// LabelFor returns the label for a weekday
func LabelFor(w time.Weekday) DayLabel {
	return weekdayLabels[w]
}

// ParseDayLabel accepts short or long English names and Korean day names
func ParseDayLabel(s string) (DayLabel, bool) {
	l, ok := labelAliases[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

// ParseDayType accepts weekday/weekend and the Korean timetable keys (평일, 토일)
func ParseDayType(s string) (DayType, bool) {
	t, ok := dayTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Weekday returns the time.Weekday for a label. Holiday has none.
func (l DayLabel) Weekday() (time.Weekday, bool) {
	for i, wl := range weekdayLabels {
		if wl == l {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// Type classifies a label into the timetable day type
func (l DayLabel) Type() DayType {
	switch l {
	case Saturday, Sunday, Holiday:
		return Weekend
	default:
		return Weekday
	}
}

// Substitutes returns labels of the same category to try, in order, when l has
// no data. The label itself is not included.
func (l DayLabel) Substitutes() []DayLabel {
	switch l {
	case Saturday:
		return []DayLabel{Sunday, Holiday}
	case Sunday:
		return []DayLabel{Saturday, Holiday}
	case Holiday:
		return []DayLabel{Sunday, Saturday}
	}
	var out []DayLabel
	for _, wl := range []DayLabel{Monday, Tuesday, Wednesday, Thursday, Friday} {
		if wl != l {
			out = append(out, wl)
		}
	}
	return out
}

// IsWeekend reports whether t falls on Saturday or Sunday
func IsWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// NextDate returns the first date on or after now that falls on the label's weekday.
// Holiday resolves to today.
func NextDate(label DayLabel, now time.Time) time.Time {
	wd, ok := label.Weekday()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !ok {
		return today
	}
	diff := (int(wd) - int(now.Weekday()) + 7) % 7
	return today.AddDate(0, 0, diff)
}
