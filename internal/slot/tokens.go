package slot

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	weekdayPattern  = `monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun`
	relativePattern = `today|tonight|tomorrow|tmrw|tmr|tom|next\s+(?:week|wk)|day\s+after\s+(?:tomorrow|tmr)`
	specialPattern  = `noon|midday|midnight`
)

var (
	// день + время за один проход: "friday at 2pm", "tmr 9:30", "sat noon"
	structuredRe = regexp.MustCompile(
		`\b(?P<day>` + weekdayPattern + `|` + relativePattern + `)\b` +
			`(?:\s+at)?\s+` +
			`(?:(?P<special>` + specialPattern + `)|` +
			`(?P<hour>\d{1,2})(?:[:.]?(?P<minute>[0-5]\d))?\s*(?P<ampm>am|pm)?)\b`,
	)

	// время без дня: "3pm", "at 4", "14:30"
	bareTimeRe = regexp.MustCompile(`\b(?:(at)\s+)?(\d{1,2})(?:([:.])?([0-5]\d))?\s*(am|pm)?\b`)

	// время с частью суток: "3 in the afternoon", "9:30 in the morning"
	periodTimeRe = regexp.MustCompile(`\b(\d{1,2})(?:[:.]([0-5]\d))?\s+in\s+the\s+(morning|afternoon|evening)\b`)

	dayTokenRe = regexp.MustCompile(`\b(?:` + weekdayPattern + `|` + relativePattern + `)\b`)
	specialRe  = regexp.MustCompile(`\b(?:` + specialPattern + `)\b`)
	digitRe    = regexp.MustCompile(`\d`)
	spacesRe   = regexp.MustCompile(`\s+`)
)

// DayToken сопоставленный токен дня
type DayToken struct {
	Text     string
	Weekday  time.Weekday
	Relative bool
}

// normalize приводит текст к нижнему регистру и схлопывает пробелы
func normalize(text string) string {
	return spacesRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// HasDayToken проверяет, упоминается ли в тексте день (недели или относительный)
func HasDayToken(text string) bool {
	return dayTokenRe.MatchString(normalize(text))
}

// FindDay ищет в тексте первый токен дня и переводит его в день недели относительно now
func FindDay(text string, now time.Time) (DayToken, bool) {
	token := dayTokenRe.FindString(normalize(text))
	if token == "" {
		return DayToken{}, false
	}

	if wd, ok := LookupWeekday(token); ok {
		return DayToken{Text: token, Weekday: wd}, true
	}

	day := advanceDay(now, token, now)
	return DayToken{Text: token, Weekday: day.Weekday(), Relative: true}, true
}

// resolveHour переводит час в 24-часовой формат.
// Без am/pm: 1-7 считаются вечером, 8-12 утром (12 это 00:00), 0 и 13-23 как есть.
// Полдень пишут словом "noon" или "12pm".
func resolveHour(hour int, ampm string, preferPM bool) (int, bool) {
	switch ampm {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		return hour % 12, true
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		return hour%12 + 12, true
	}

	switch {
	case hour > 23:
		return 0, false
	case hour == 12:
		return 0, true
	case hour == 0, hour > 12:
		return hour, true
	case preferPM, hour <= 7:
		return hour + 12, true
	default:
		return hour, true
	}
}

// specialHour час для noon/midday/midnight
func specialHour(word string) int {
	if word == "midnight" {
		return 0
	}
	return 12
}

// advanceDay переносит base (время уже выставлено на сегодня) на день из токена
func advanceDay(base time.Time, token string, now time.Time) time.Time {
	switch {
	case token == "today":
		return base
	case token == "tonight":
		if base.Before(now) {
			return base.AddDate(0, 0, 1)
		}
		return base
	case token == "tomorrow", token == "tom", token == "tmr", token == "tmrw":
		return base.AddDate(0, 0, 1)
	case strings.HasPrefix(token, "day after"):
		return base.AddDate(0, 0, 2)
	case strings.HasPrefix(token, "next"):
		return base.AddDate(0, 0, 7)
	}

	wd, ok := LookupWeekday(token)
	if !ok {
		return base
	}
	days := (int(wd) - int(base.Weekday()) + 7) % 7
	t := base.AddDate(0, 0, days)
	if t.Before(now) {
		t = t.AddDate(0, 0, 7)
	}
	return t
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
