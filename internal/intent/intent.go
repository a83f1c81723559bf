// Package intent определяет намерение пользователя по ключевым словам
package intent

import (
	"regexp"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/slot"
)

// Intent намерение сообщения
type Intent string

const (
	SmallTalk  Intent = "smalltalk"
	Cancel     Intent = "cancel"
	Reschedule Intent = "reschedule"
	Lookup     Intent = "lookup"
	CheckDay   Intent = "check_day"
	Book       Intent = "book"
	Other      Intent = "other"
)

var (
	bookRe       = regexp.MustCompile(`\b(?:book|booking|reserve|schedule|appointment|appt|slot|slots|pencil|meeting)\b`)
	cancelRe     = regexp.MustCompile(`\b(?:cancel|delete|drop|remove|clear)\b`)
	rescheduleRe = regexp.MustCompile(`\b(?:reschedule|rebook|(?:change|move|shift)\s+(?:my\s+|the\s+)?(?:appointment|appt|booking|slot|time))\b`)
	lookupRe     = regexp.MustCompile(`\b(?:booked|scheduled|reserved|what time|when is)\b`)
	availableRe  = regexp.MustCompile(`\b(?:any|available|availability|open|openings?|free|slot|slots)\b`)
	timeRe       = regexp.MustCompile(`\b(?:\d{1,2}(?::\d{2})?\s*(?:am|pm)?|midnight|midday|noon)\b`)
	explicitRe   = regexp.MustCompile(`\b(?:\d{1,2}[:.]\d{2}|\d{1,2}\s*(?:am|pm)|at\s+\d{1,2}|midnight|midday|noon)\b`)
	spacesRe     = regexp.MustCompile(`\s+`)
)

var smallTalk = map[string]struct{}{
	"hi":           {},
	"hello":        {},
	"hey":          {},
	"thanks":       {},
	"thank you":    {},
	"yo":           {},
	"sup":          {},
	"howdy":        {},
	"good morning": {},
	"good evening": {},
}

// Classify определяет намерение. Порядок проверок важен: отмена и перенос раньше записи.
func Classify(text string) Intent {
	msg := normalize(text)
	if msg == "" {
		return Other
	}

	if _, ok := smallTalk[strings.Trim(msg, "!.?, ")]; ok {
		return SmallTalk
	}

	// "change my appointment" не должно попасть в запись
	if rescheduleRe.MatchString(msg) {
		return Reschedule
	}

	if cancelRe.MatchString(msg) {
		return Cancel
	}

	if lookupRe.MatchString(msg) ||
		((strings.Contains(msg, "have") || strings.Contains(msg, "currently")) &&
			(strings.Contains(msg, "appt") || strings.Contains(msg, "appointment"))) {
		return Lookup
	}

	hasDay := slot.HasDayToken(msg)
	if hasDay && availableRe.MatchString(msg) && !explicitRe.MatchString(msg) {
		return CheckDay
	}
	if !hasDay && !bookRe.MatchString(msg) && availableRe.MatchString(msg) && strings.Contains(msg, "?") {
		return CheckDay
	}

	if bookRe.MatchString(msg) || (hasDay && timeRe.MatchString(msg)) {
		return Book
	}

	return Other
}

// IsBookingRelated запись или вопрос о свободных слотах
func (i Intent) IsBookingRelated() bool {
	return i == Book || i == CheckDay
}

// MentionsTime есть ли в тексте явное указание времени суток
func MentionsTime(text string) bool {
	return explicitRe.MatchString(normalize(text))
}

func normalize(text string) string {
	return spacesRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}
